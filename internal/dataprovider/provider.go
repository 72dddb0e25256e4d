// Package dataprovider reads resources from the database: items by
// identifier, collections through query extensions (filters, ordering,
// eager loading, pagination) and subresources through their parent chain.
package dataprovider

import (
	"context"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// Context carries the request state providers and extensions read
type Context struct {
	// Operation is the resolved operation being served
	Operation resource.Operation
	// Filters are the request parameters, or the GraphQL arguments
	Filters *ordered.Map
	// GraphQL switches pagination to first/last/before/after
	GraphQL bool
	// Includes are relationship paths to eager load on top of the
	// readable links of the resource
	Includes []string
	// Groups restrict eager loading to properties in these serializer groups
	Groups []string
}

// ItemDataProvider fetches one item. A missing item is (nil, nil).
type ItemDataProvider interface {
	GetItem(ctx context.Context, resourceClass string, identifiers *ordered.Map, dctx Context) (interface{}, error)
}

// CollectionDataProvider fetches a collection: a []interface{} or a
// pagination.PartialPaginator when the collection is paginated.
type CollectionDataProvider interface {
	GetCollection(ctx context.Context, resourceClass string, dctx Context) (interface{}, error)
}

// SubresourceDataProvider fetches the items reachable from a parent chain.
// identifiers holds one value per identifier link of the operation, keyed
// by link parameter.
type SubresourceDataProvider interface {
	GetSubresource(ctx context.Context, resourceClass string, identifiers *ordered.Map, dctx Context) (interface{}, error)
}

// RestrictedDataProvider is implemented by providers serving only some classes
type RestrictedDataProvider interface {
	Supports(resourceClass string, dctx Context) bool
}

func skip(p interface{}, resourceClass string, dctx Context) bool {
	r, ok := p.(RestrictedDataProvider)
	return ok && !r.Supports(resourceClass, dctx)
}

// ChainItemDataProvider asks each provider in turn. Providers that do not
// support the class, or answer ErrResourceClassNotSupported, are skipped.
type ChainItemDataProvider struct {
	providers []ItemDataProvider
}

// NewChainItemDataProvider creates a chain over providers
func NewChainItemDataProvider(providers ...ItemDataProvider) *ChainItemDataProvider {
	return &ChainItemDataProvider{providers: providers}
}

func (c *ChainItemDataProvider) GetItem(ctx context.Context, resourceClass string, identifiers *ordered.Map, dctx Context) (interface{}, error) {
	for _, p := range c.providers {
		if skip(p, resourceClass, dctx) {
			continue
		}
		item, err := p.GetItem(ctx, resourceClass, identifiers, dctx)
		if apierr.IsNotSupported(err) {
			continue
		}
		return item, err
	}
	return nil, nil
}

// ChainCollectionDataProvider asks each provider in turn, see ChainItemDataProvider
type ChainCollectionDataProvider struct {
	providers []CollectionDataProvider
}

// NewChainCollectionDataProvider creates a chain over providers
func NewChainCollectionDataProvider(providers ...CollectionDataProvider) *ChainCollectionDataProvider {
	return &ChainCollectionDataProvider{providers: providers}
}

func (c *ChainCollectionDataProvider) GetCollection(ctx context.Context, resourceClass string, dctx Context) (interface{}, error) {
	for _, p := range c.providers {
		if skip(p, resourceClass, dctx) {
			continue
		}
		items, err := p.GetCollection(ctx, resourceClass, dctx)
		if apierr.IsNotSupported(err) {
			continue
		}
		return items, err
	}
	return []interface{}{}, nil
}

// ChainSubresourceDataProvider asks each provider in turn
type ChainSubresourceDataProvider struct {
	providers []SubresourceDataProvider
}

// NewChainSubresourceDataProvider creates a chain over providers
func NewChainSubresourceDataProvider(providers ...SubresourceDataProvider) *ChainSubresourceDataProvider {
	return &ChainSubresourceDataProvider{providers: providers}
}

func (c *ChainSubresourceDataProvider) GetSubresource(ctx context.Context, resourceClass string, identifiers *ordered.Map, dctx Context) (interface{}, error) {
	for _, p := range c.providers {
		if skip(p, resourceClass, dctx) {
			continue
		}
		result, err := p.GetSubresource(ctx, resourceClass, identifiers, dctx)
		if apierr.IsNotSupported(err) {
			continue
		}
		return result, err
	}
	if dctx.Operation.IsCollection() {
		return []interface{}{}, nil
	}
	return nil, nil
}
