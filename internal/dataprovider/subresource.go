package dataprovider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/orm/schema"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// ORMSubresourceDataProvider reads resources reached through a parent chain,
// such as /users/{id}/posts/{posts}/comments.
//
// The operation's identifier links describe the chain, outermost first;
// the link parameter of every level past the first names the association
// followed from the previous level, and the subresource property names
// the last one. The chain is folded in a loop: each level is narrowed to
// the primary keys matched by the level before, and the keys it matches
// feed the next level.
type ORMSubresourceDataProvider struct {
	orm
	collectionExtensions []QueryCollectionExtension
	itemExtensions       []QueryItemExtension
}

// NewSubresourceDataProvider creates a subresource provider
func NewSubresourceDataProvider(db query.Querier, schemas *schema.Registry, hydrator *Hydrator, logger *zap.Logger, collectionExtensions []QueryCollectionExtension, itemExtensions []QueryItemExtension) *ORMSubresourceDataProvider {
	return &ORMSubresourceDataProvider{
		orm:                  newORM(db, schemas, hydrator, logger),
		collectionExtensions: sortCollectionExtensions(collectionExtensions),
		itemExtensions:       sortItemExtensions(itemExtensions),
	}
}

func (p *ORMSubresourceDataProvider) GetSubresource(ctx context.Context, resourceClass string, identifiers *ordered.Map, dctx Context) (interface{}, error) {
	op := dctx.Operation
	links := op.Identifiers()
	if len(links) == 0 || op.SubresourceProperty() == "" || identifiers == nil {
		return nil, fmt.Errorf("%w: %s is not a subresource operation", apierr.ErrResourceClassNotSupported, op.Name())
	}

	target, err := p.resourceSchema(resourceClass)
	if err != nil {
		return nil, err
	}

	qb, err := p.fold(ctx, links, identifiers, op.SubresourceProperty(), target)
	if err != nil {
		return nil, err
	}

	hydrate := p.hydrator.Rows(resourceClass)
	if op.IsCollection() {
		if result, ok, err := applyCollection(ctx, p.collectionExtensions, qb, resourceClass, dctx, hydrate); ok || err != nil {
			return result, err
		}
		rows, err := qb.All(ctx)
		if err != nil {
			return nil, err
		}
		return hydrate(ctx, rows)
	}

	if result, ok, err := applyItem(ctx, p.itemExtensions, qb, resourceClass, identifiers, dctx, hydrate); ok || err != nil {
		return result, err
	}
	row, err := qb.First(ctx)
	if errors.Is(err, query.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.hydrator.Hydrate(resourceClass, row)
}

// fold walks the identifier chain and returns the query of the target,
// restricted to the rows reachable from the last matched parents
func (p *ORMSubresourceDataProvider) fold(ctx context.Context, links []resource.Link, identifiers *ordered.Map, property string, target *schema.ResourceSchema) (*query.QueryBuilder, error) {
	var (
		parent *schema.ResourceSchema
		acc    []interface{}
	)

	for i, link := range links {
		value, ok := identifiers.Get(link.Parameter)
		if !ok {
			return nil, apierr.InvalidArgument("Missing identifier %q for the subresource.", link.Parameter)
		}
		sch, err := p.resourceSchema(link.Class)
		if err != nil {
			return nil, err
		}

		if i == 0 && link.Property == primaryKey(sch) {
			acc = []interface{}{value}
			parent = sch
			continue
		}

		qb := p.newQuery(sch)
		if i > 0 {
			if qb, err = p.contain(ctx, parent, link.Parameter, sch, acc); err != nil {
				return nil, err
			}
		}
		qb.Where(link.Property, query.OpEqual, value)
		if acc, err = qb.Pluck(ctx, primaryKey(sch)); err != nil {
			return nil, err
		}
		parent = sch

		p.logger.Debug("subresource level matched",
			zap.String("resource", sch.Name),
			zap.Int("level", i),
			zap.Int("matches", len(acc)),
		)
	}

	return p.contain(ctx, parent, property, target, acc)
}

// contain builds a query of target limited to the rows association links
// to parents whose primary key is in ids
func (p *ORMSubresourceDataProvider) contain(ctx context.Context, parent *schema.ResourceSchema, association string, target *schema.ResourceSchema, ids []interface{}) (*query.QueryBuilder, error) {
	qb := p.newQuery(target)
	if len(ids) == 0 {
		return qb.MatchNone(), nil
	}

	rel, ok := parent.Relationships[association]
	if !ok {
		// The association is the class's own identifier
		if parent.Name == target.Name && target.HasField(association) {
			return qb.WhereIn(primaryKey(target), ids), nil
		}
		return nil, apierr.Configuration("The resource class %q has no association %q.", parent.Name, association)
	}
	if rel.TargetResource != target.Name {
		return nil, apierr.Configuration("The association %s.%s targets %q, not %q.", parent.Name, association, rel.TargetResource, target.Name)
	}

	switch rel.Type {
	case schema.RelationshipBelongsTo:
		keys, err := p.newQuery(parent).WhereIn(primaryKey(parent), ids).Pluck(ctx, association)
		if err != nil {
			return nil, err
		}
		return whereKeys(qb, primaryKey(target), compact(keys)), nil

	case schema.RelationshipHasMany, schema.RelationshipHasOne:
		return qb.WhereColumn(rel.ForeignKey, query.OpIn, ids), nil

	case schema.RelationshipHasManyThrough:
		keys, err := query.NewTableQuery(rel.JoinTable, p.db).WhereIn(rel.ForeignKey, ids).Pluck(ctx, rel.AssociationKey)
		if err != nil {
			return nil, err
		}
		return whereKeys(qb, primaryKey(target), keys), nil
	}
	return nil, apierr.Configuration("Unsupported relationship type %s on %s.%s.", rel.Type, parent.Name, association)
}

func whereKeys(qb *query.QueryBuilder, field string, keys []interface{}) *query.QueryBuilder {
	if len(keys) == 0 {
		return qb.MatchNone()
	}
	return qb.WhereIn(field, keys)
}

func compact(values []interface{}) []interface{} {
	out := values[:0]
	for _, v := range values {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}
