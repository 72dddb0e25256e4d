package dataprovider

import (
	"context"
	"sort"
	"strings"

	"github.com/Foxprodev/core/internal/filter"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/orm/schema"
	"github.com/Foxprodev/core/internal/pagination"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// Built-in extension priorities
const (
	FilterPriority       = 32
	EagerLoadingPriority = -8
	OrderPriority        = -32
	PaginationPriority   = -64
)

// FilterExtension applies the filters an operation declares
type FilterExtension struct {
	locator *filter.Locator
}

// NewFilterExtension creates a filter extension over locator
func NewFilterExtension(locator *filter.Locator) *FilterExtension {
	return &FilterExtension{locator: locator}
}

func (e *FilterExtension) Priority() int { return FilterPriority }

func (e *FilterExtension) ApplyToCollection(_ context.Context, qb *query.QueryBuilder, resourceClass string, dctx Context) error {
	filters, err := e.locator.ForOperation(dctx.Operation)
	if err != nil {
		return err
	}
	params := dctx.Filters
	if params == nil {
		params = ordered.New()
	}
	for _, f := range filters {
		if err := f.Apply(qb, resourceClass, dctx.Operation, params); err != nil {
			return err
		}
	}
	return nil
}

// OrderExtension applies the default order of an operation when nothing
// else ordered the query. Without a default order, identifiers sort
// ascending so pages stay stable.
type OrderExtension struct{}

// NewOrderExtension creates an order extension
func NewOrderExtension() *OrderExtension { return &OrderExtension{} }

func (e *OrderExtension) Priority() int { return OrderPriority }

func (e *OrderExtension) ApplyToCollection(_ context.Context, qb *query.QueryBuilder, _ string, dctx Context) error {
	if qb.HasOrderBy() {
		return nil
	}
	clauses := dctx.Operation.Order()
	if len(clauses) == 0 {
		if sch := qb.Resource(); sch != nil && sch.PrimaryKey != "" {
			qb.OrderBy(sch.PrimaryKey, "ASC")
		}
		return nil
	}
	for _, c := range clauses {
		direction := strings.ToUpper(c.Direction)
		if direction == "" {
			direction = "ASC"
		}
		qb.OrderBy(c.Field, direction)
	}
	return qb.Err()
}

// EagerLoadingExtension loads relations the serializer will embed: the
// readable links of the resource plus any requested include path.
type EagerLoadingExtension struct {
	loader     query.RelationshipLoader
	properties property.Factory
	logger     *zap.Logger
}

// NewEagerLoadingExtension creates an eager loading extension
func NewEagerLoadingExtension(loader query.RelationshipLoader, properties property.Factory, logger *zap.Logger) *EagerLoadingExtension {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EagerLoadingExtension{loader: loader, properties: properties, logger: logger}
}

func (e *EagerLoadingExtension) Priority() int { return EagerLoadingPriority }

func (e *EagerLoadingExtension) ApplyToCollection(ctx context.Context, qb *query.QueryBuilder, resourceClass string, dctx Context) error {
	return e.apply(ctx, qb, resourceClass, dctx)
}

func (e *EagerLoadingExtension) ApplyToItem(ctx context.Context, qb *query.QueryBuilder, resourceClass string, _ *ordered.Map, dctx Context) error {
	return e.apply(ctx, qb, resourceClass, dctx)
}

func (e *EagerLoadingExtension) apply(ctx context.Context, qb *query.QueryBuilder, resourceClass string, dctx Context) error {
	sch := qb.Resource()
	if sch == nil {
		return nil
	}

	groups := dctx.Groups
	if len(groups) == 0 {
		groups = dctx.Operation.NormalizationContext().Groups
	}
	opts := property.Options{SerializerGroups: groups, OperationName: dctx.Operation.Name()}

	var includes []string
	for _, name := range relationshipNames(sch) {
		md, err := e.properties.Create(ctx, resourceClass, name, opts)
		if err != nil {
			return err
		}
		if md.IsReadable() && md.IsReadableLink() {
			includes = append(includes, name)
		}
	}
	includes = append(includes, dctx.Includes...)
	if len(includes) == 0 {
		return nil
	}

	e.logger.Debug("eager loading relations",
		zap.String("resource", resourceClass),
		zap.Strings("includes", includes),
	)
	qb.WithLoader(e.loader).Includes(includes...)
	return nil
}

func relationshipNames(sch *schema.ResourceSchema) []string {
	names := make([]string, 0, len(sch.Relationships))
	for name := range sch.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PaginationExtension owns the terminal read of paginated collections
type PaginationExtension struct {
	pagination *pagination.Pagination
}

// NewPaginationExtension creates a pagination extension
func NewPaginationExtension(p *pagination.Pagination) *PaginationExtension {
	return &PaginationExtension{pagination: p}
}

func (e *PaginationExtension) Priority() int { return PaginationPriority }

// ApplyToCollection does nothing: the window is applied by GetResult.
func (e *PaginationExtension) ApplyToCollection(context.Context, *query.QueryBuilder, string, Context) error {
	return nil
}

func (e *PaginationExtension) SupportsResult(_ string, dctx Context) bool {
	if dctx.GraphQL {
		return e.pagination.IsGraphQLEnabled(dctx.Operation)
	}
	return e.pagination.IsEnabled(dctx.Operation, e.context(dctx))
}

func (e *PaginationExtension) GetResult(ctx context.Context, qb *query.QueryBuilder, _ string, dctx Context, hydrate pagination.Hydrator) (interface{}, error) {
	pctx := e.context(dctx)

	// Backward pagination without a cursor starts from the end
	if dctx.GraphQL && has(dctx.Filters, "last") && !has(dctx.Filters, "before") {
		count, err := qb.Clone().Count(ctx)
		if err != nil {
			return nil, err
		}
		pctx.Count = count
	}

	_, offset, limit, err := e.pagination.Pagination(dctx.Operation, pctx)
	if err != nil {
		return nil, err
	}

	if e.pagination.IsPartialEnabled(dctx.Operation, pctx) {
		return pagination.PaginatePartial(ctx, qb, offset, limit, hydrate)
	}
	return pagination.Paginate(ctx, qb, offset, limit, hydrate)
}

func (e *PaginationExtension) context(dctx Context) pagination.Context {
	return pagination.Context{Filters: dctx.Filters, GraphQL: dctx.GraphQL}
}

func has(m *ordered.Map, key string) bool {
	if m == nil {
		return false
	}
	v, ok := m.Get(key)
	return ok && v != nil
}
