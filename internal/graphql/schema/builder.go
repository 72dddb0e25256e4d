package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

// SchemaBuilder builds the GraphQL schema of every resource
type SchemaBuilder struct {
	names     resource.NameCollectionFactory
	resources resource.CollectionFactory
	fields    *FieldsBuilder
	types     *TypeBuilder
	container *TypesContainer
	logger    *zap.Logger
}

// NewSchemaBuilder creates a schema builder
func NewSchemaBuilder(names resource.NameCollectionFactory, resources resource.CollectionFactory, fields *FieldsBuilder, logger *zap.Logger) *SchemaBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaBuilder{
		names:     names,
		resources: resources,
		fields:    fields,
		types:     fields.types,
		container: fields.types.container,
		logger:    logger,
	}
}

// Build returns the schema. Queries of every resource are added before
// mutations and subscriptions so resource types take the fields of their
// item query.
func (b *SchemaBuilder) Build(ctx context.Context) (graphql.Schema, error) {
	queries := b.fields.NodeQueryFields()
	mutations := graphql.Fields{}
	subscriptions := graphql.Fields{}

	classes, err := b.names.Create(ctx)
	if err != nil {
		return graphql.Schema{}, err
	}

	type pending struct {
		class, shortName string
		op               resource.Operation
	}
	var writes []pending

	for _, resourceClass := range classes {
		collection, err := b.resources.Create(ctx, resourceClass)
		if err != nil {
			return graphql.Schema{}, err
		}
		for _, md := range collection.Metadata {
			if md.GraphQLDisabled() {
				continue
			}
			shortName := md.ShortName()
			for _, op := range sortedOperations(md.GraphQLOperations().All()) {
				switch op.Kind() {
				case resource.KindQuery:
					if err := merge(queries, b.fields.ItemQueryFields(ctx, resourceClass, shortName, op)); err != nil {
						return graphql.Schema{}, err
					}
				case resource.KindQueryCollection:
					fields, err := b.fields.CollectionQueryFields(ctx, resourceClass, shortName, op)
					if err != nil {
						return graphql.Schema{}, err
					}
					if err := merge(queries, fields); err != nil {
						return graphql.Schema{}, err
					}
				case resource.KindMutation, resource.KindSubscription:
					writes = append(writes, pending{resourceClass, shortName, op})
				}
			}
		}
	}

	for _, w := range writes {
		if w.op.Kind() == resource.KindSubscription {
			err = merge(subscriptions, b.fields.SubscriptionFields(ctx, w.class, w.shortName, w.op))
		} else {
			err = merge(mutations, b.fields.MutationFields(ctx, w.class, w.shortName, w.op))
		}
		if err != nil {
			return graphql.Schema{}, err
		}
	}

	cfg := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: queries}),
	}
	if len(mutations) > 0 {
		cfg.Mutation = graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutations})
	}
	if len(subscriptions) > 0 {
		cfg.Subscription = graphql.NewObject(graphql.ObjectConfig{Name: "Subscription", Fields: subscriptions})
	}

	schema, err := graphql.NewSchema(cfg)
	if err == nil {
		err = b.types.Err()
	}
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("building GraphQL schema: %w", err)
	}

	b.logger.Debug("graphql schema built",
		zap.Int("resources", len(classes)),
		zap.Int("queries", len(queries)),
		zap.Int("mutations", len(mutations)),
		zap.Int("subscriptions", len(subscriptions)),
	)
	return schema, nil
}

// sortedOperations puts queries first, keeping declaration order otherwise
func sortedOperations(ops []resource.Operation) []resource.Operation {
	rank := func(op resource.Operation) int {
		switch op.Kind() {
		case resource.KindQuery:
			return 0
		case resource.KindQueryCollection:
			return 1
		}
		return 2
	}
	out := append([]resource.Operation(nil), ops...)
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

func merge(into, fields graphql.Fields) error {
	for name, field := range fields {
		if _, ok := into[name]; ok {
			return fmt.Errorf("building GraphQL schema: field %q is defined twice", name)
		}
		into[name] = field
	}
	return nil
}

// Types returns the container of the built types
func (b *SchemaBuilder) Types() *TypesContainer {
	return b.container
}
