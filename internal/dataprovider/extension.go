package dataprovider

import (
	"context"
	"sort"

	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/pagination"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// QueryCollectionExtension mutates a collection query before it runs
type QueryCollectionExtension interface {
	ApplyToCollection(ctx context.Context, qb *query.QueryBuilder, resourceClass string, dctx Context) error
}

// QueryResultCollectionExtension may take over the terminal read of a
// collection. Only the first supporting extension runs its GetResult.
type QueryResultCollectionExtension interface {
	QueryCollectionExtension
	SupportsResult(resourceClass string, dctx Context) bool
	GetResult(ctx context.Context, qb *query.QueryBuilder, resourceClass string, dctx Context, hydrate pagination.Hydrator) (interface{}, error)
}

// QueryItemExtension mutates an item query before it runs
type QueryItemExtension interface {
	ApplyToItem(ctx context.Context, qb *query.QueryBuilder, resourceClass string, identifiers *ordered.Map, dctx Context) error
}

// QueryResultItemExtension may take over the terminal read of an item
type QueryResultItemExtension interface {
	QueryItemExtension
	SupportsResult(resourceClass string, dctx Context) bool
	GetResult(ctx context.Context, qb *query.QueryBuilder, resourceClass string, dctx Context, hydrate pagination.Hydrator) (interface{}, error)
}

// Prioritized extensions run in descending priority. Extensions without a
// priority count as 0; ties keep registration order.
type Prioritized interface {
	Priority() int
}

func priority(ext interface{}) int {
	if p, ok := ext.(Prioritized); ok {
		return p.Priority()
	}
	return 0
}

func sortCollectionExtensions(exts []QueryCollectionExtension) []QueryCollectionExtension {
	out := append([]QueryCollectionExtension(nil), exts...)
	sort.SliceStable(out, func(i, j int) bool { return priority(out[i]) > priority(out[j]) })
	return out
}

func sortItemExtensions(exts []QueryItemExtension) []QueryItemExtension {
	out := append([]QueryItemExtension(nil), exts...)
	sort.SliceStable(out, func(i, j int) bool { return priority(out[i]) > priority(out[j]) })
	return out
}

// applyCollection runs every extension on qb, then lets the first result
// extension read it. ok is false when no extension owned the result.
func applyCollection(ctx context.Context, exts []QueryCollectionExtension, qb *query.QueryBuilder, resourceClass string, dctx Context, hydrate pagination.Hydrator) (result interface{}, ok bool, err error) {
	for _, ext := range exts {
		if err := ext.ApplyToCollection(ctx, qb, resourceClass, dctx); err != nil {
			return nil, false, err
		}
		if r, isResult := ext.(QueryResultCollectionExtension); isResult && r.SupportsResult(resourceClass, dctx) {
			result, err := r.GetResult(ctx, qb, resourceClass, dctx, hydrate)
			return result, true, err
		}
	}
	return nil, false, nil
}

func applyItem(ctx context.Context, exts []QueryItemExtension, qb *query.QueryBuilder, resourceClass string, identifiers *ordered.Map, dctx Context, hydrate pagination.Hydrator) (result interface{}, ok bool, err error) {
	for _, ext := range exts {
		if err := ext.ApplyToItem(ctx, qb, resourceClass, identifiers, dctx); err != nil {
			return nil, false, err
		}
		if r, isResult := ext.(QueryResultItemExtension); isResult && r.SupportsResult(resourceClass, dctx) {
			result, err := r.GetResult(ctx, qb, resourceClass, dctx, hydrate)
			return result, true, err
		}
	}
	return nil, false, nil
}
