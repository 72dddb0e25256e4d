package resource

import (
	"context"

	"github.com/Foxprodev/core/internal/cache"
	"go.uber.org/zap"
)

const collectionCachePrefix = "resource_metadata_collection_"

// CachedCollectionFactory memoizes an inner factory by class
type CachedCollectionFactory struct {
	inner  CollectionFactory
	loader *cache.Loader[MetadataCollection]
}

// NewCachedCollectionFactory decorates inner with a local map backed by pool
func NewCachedCollectionFactory(inner CollectionFactory, pool cache.Cache, logger *zap.Logger, metrics *cache.Metrics) *CachedCollectionFactory {
	return &CachedCollectionFactory{
		inner:  inner,
		loader: cache.NewLoader[MetadataCollection]("resource_metadata_collection", pool, logger, metrics),
	}
}

func (f *CachedCollectionFactory) Create(ctx context.Context, resourceClass string) (MetadataCollection, error) {
	key := cache.Key(collectionCachePrefix, resourceClass)
	return f.loader.Get(ctx, key, func() (MetadataCollection, error) {
		return f.inner.Create(ctx, resourceClass)
	})
}
