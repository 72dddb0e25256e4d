package dataprovider

import (
	"context"
	"errors"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/orm/schema"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// orm holds what the database providers share
type orm struct {
	db       query.Querier
	schemas  *schema.Registry
	hydrator *Hydrator
	logger   *zap.Logger
}

func newORM(db query.Querier, schemas *schema.Registry, hydrator *Hydrator, logger *zap.Logger) orm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return orm{db: db, schemas: schemas, hydrator: hydrator, logger: logger}
}

// Supports reports whether resourceClass is mapped to a table
func (o orm) Supports(resourceClass string, _ Context) bool {
	return o.schemas.Exists(resourceClass)
}

func (o orm) resourceSchema(resourceClass string) (*schema.ResourceSchema, error) {
	sch, ok := o.schemas.Get(resourceClass)
	if !ok {
		return nil, apierr.Configuration("The resource class %q is not mapped to a table. Register its schema before querying it.", resourceClass)
	}
	return sch, nil
}

func (o orm) newQuery(sch *schema.ResourceSchema) *query.QueryBuilder {
	return query.NewQueryBuilder(sch, o.db, o.schemas)
}

var (
	_ ItemDataProvider        = (*ORMItemDataProvider)(nil)
	_ CollectionDataProvider  = (*ORMCollectionDataProvider)(nil)
	_ SubresourceDataProvider = (*ORMSubresourceDataProvider)(nil)
)

// ORMItemDataProvider reads one item by its identifiers
type ORMItemDataProvider struct {
	orm
	extensions []QueryItemExtension
}

// NewItemDataProvider creates an item provider. Extensions run in
// descending priority.
func NewItemDataProvider(db query.Querier, schemas *schema.Registry, hydrator *Hydrator, logger *zap.Logger, extensions ...QueryItemExtension) *ORMItemDataProvider {
	return &ORMItemDataProvider{
		orm:        newORM(db, schemas, hydrator, logger),
		extensions: sortItemExtensions(extensions),
	}
}

func (p *ORMItemDataProvider) GetItem(ctx context.Context, resourceClass string, identifiers *ordered.Map, dctx Context) (interface{}, error) {
	sch, err := p.resourceSchema(resourceClass)
	if err != nil {
		return nil, err
	}

	qb := p.newQuery(sch)
	if identifiers != nil {
		for _, name := range identifiers.Keys() {
			value, _ := identifiers.Get(name)
			qb.Where(name, query.OpEqual, value)
		}
	}

	hydrate := p.hydrator.Rows(resourceClass)
	if result, ok, err := applyItem(ctx, p.extensions, qb, resourceClass, identifiers, dctx, hydrate); ok || err != nil {
		return result, err
	}

	row, err := qb.First(ctx)
	if errors.Is(err, query.ErrNotFound) {
		p.logger.Debug("item not found", zap.String("resource", resourceClass))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.hydrator.Hydrate(resourceClass, row)
}

// ORMCollectionDataProvider reads collections through its extensions
type ORMCollectionDataProvider struct {
	orm
	extensions []QueryCollectionExtension
}

// NewCollectionDataProvider creates a collection provider. Extensions run
// in descending priority.
func NewCollectionDataProvider(db query.Querier, schemas *schema.Registry, hydrator *Hydrator, logger *zap.Logger, extensions ...QueryCollectionExtension) *ORMCollectionDataProvider {
	return &ORMCollectionDataProvider{
		orm:        newORM(db, schemas, hydrator, logger),
		extensions: sortCollectionExtensions(extensions),
	}
}

func (p *ORMCollectionDataProvider) GetCollection(ctx context.Context, resourceClass string, dctx Context) (interface{}, error) {
	sch, err := p.resourceSchema(resourceClass)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, p.newQuery(sch), resourceClass, dctx)
}

func (p *ORMCollectionDataProvider) run(ctx context.Context, qb *query.QueryBuilder, resourceClass string, dctx Context) (interface{}, error) {
	hydrate := p.hydrator.Rows(resourceClass)
	if result, ok, err := applyCollection(ctx, p.extensions, qb, resourceClass, dctx, hydrate); ok || err != nil {
		return result, err
	}

	rows, err := qb.All(ctx)
	if err != nil {
		return nil, err
	}
	return hydrate(ctx, rows)
}
