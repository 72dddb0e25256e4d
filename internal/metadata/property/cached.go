package property

import (
	"context"

	"github.com/Foxprodev/core/internal/cache"
	"go.uber.org/zap"
)

const (
	metadataCachePrefix = "property_metadata_"
	nameCachePrefix     = "property_name_collection_"
)

// CachedFactory memoizes an inner factory by class, property and options
type CachedFactory struct {
	inner  Factory
	loader *cache.Loader[Metadata]
}

// NewCachedFactory decorates inner with a local map backed by pool
func NewCachedFactory(inner Factory, pool cache.Cache, logger *zap.Logger, metrics *cache.Metrics) *CachedFactory {
	return &CachedFactory{
		inner:  inner,
		loader: cache.NewLoader[Metadata]("property_metadata", pool, logger, metrics),
	}
}

func (f *CachedFactory) Create(ctx context.Context, resourceClass, property string, opts Options) (Metadata, error) {
	key := cache.Key(metadataCachePrefix, resourceClass, property, opts)
	return f.loader.Get(ctx, key, func() (Metadata, error) {
		return f.inner.Create(ctx, resourceClass, property, opts)
	})
}

// CachedNameFactory memoizes an inner name factory by class and options
type CachedNameFactory struct {
	inner  NameFactory
	loader *cache.Loader[NameCollection]
}

// NewCachedNameFactory decorates inner with a local map backed by pool
func NewCachedNameFactory(inner NameFactory, pool cache.Cache, logger *zap.Logger, metrics *cache.Metrics) *CachedNameFactory {
	return &CachedNameFactory{
		inner:  inner,
		loader: cache.NewLoader[NameCollection]("property_name_collection", pool, logger, metrics),
	}
}

func (f *CachedNameFactory) Create(ctx context.Context, resourceClass string, opts Options) (NameCollection, error) {
	key := cache.Key(nameCachePrefix, resourceClass, opts)
	return f.loader.Get(ctx, key, func() (NameCollection, error) {
		return f.inner.Create(ctx, resourceClass, opts)
	})
}
