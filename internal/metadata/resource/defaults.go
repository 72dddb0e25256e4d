package resource

import (
	"context"
	"fmt"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/cli/config"
	ustrings "github.com/Foxprodev/core/internal/util/strings"
)

// Pagination types
const (
	PaginationTypePage   = "page"
	PaginationTypeCursor = "cursor"
)

// GraphQL operation names given to unnamed operations
const (
	GraphQLItemQuery       = "item_query"
	GraphQLCollectionQuery = "collection_query"
	GraphQLCreate          = "create"
	GraphQLUpdate          = "update"
	GraphQLDelete          = "delete"
	GraphQLSubscription    = "update_subscription"
)

// Defaults are the application-wide values operations inherit
type Defaults struct {
	Pagination config.PaginationConfig
	GraphQL    config.GraphQLConfig
}

// DefaultsFromConfig extracts the operation defaults from the application configuration
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{Pagination: cfg.Pagination, GraphQL: cfg.GraphQL}
}

// OperationDefaultsFactory completes every declaration: short name, the
// default operations of undeclared resources, operation names, methods, URI
// templates and the pagination defaults from the configuration.
type OperationDefaultsFactory struct {
	inner    CollectionFactory
	defaults Defaults
}

// NewOperationDefaultsFactory decorates inner
func NewOperationDefaultsFactory(inner CollectionFactory, defaults Defaults) *OperationDefaultsFactory {
	return &OperationDefaultsFactory{inner: inner, defaults: defaults}
}

func (f *OperationDefaultsFactory) Create(ctx context.Context, resourceClass string) (MetadataCollection, error) {
	c, err := f.inner.Create(ctx, resourceClass)
	if err != nil {
		return c, err
	}

	declared := c.Metadata
	if len(declared) == 0 {
		declared = []Metadata{New(resourceClass)}
	}

	out := make([]Metadata, 0, len(declared))
	for _, md := range declared {
		out = append(out, f.complete(resourceClass, md))
	}
	c.Metadata = out
	return c, nil
}

func (f *OperationDefaultsFactory) complete(resourceClass string, md Metadata) Metadata {
	md = md.WithClass(resourceClass)
	if md.ShortName() == "" {
		md = md.WithShortName(class.ShortName(resourceClass))
	}

	defaults := md.Defaults().
		WithClass(resourceClass).
		WithShortName(md.ShortName()).
		WithDefaults(f.paginationDefaults())
	if md.Description() != "" {
		defaults = defaults.WithDefaults(NewOperation("").WithDescription(md.Description()))
	}
	md = md.WithDefaults(defaults)

	rest := md.Operations().All()
	if len(rest) == 0 {
		rest = []Operation{Get(), GetCollection(), Post(), Put(), Patch(), Delete()}
	}
	named := make([]Operation, 0, len(rest))
	for _, op := range rest {
		named = append(named, f.completeREST(md, op))
	}
	md.s.Operations = NewOperations(named...)

	if !f.defaults.GraphQL.Enabled || md.GraphQLDisabled() {
		md.s.GraphQLOperations = Operations{}
		return md
	}
	gql := md.GraphQLOperations().All()
	if len(gql) == 0 {
		gql = []Operation{
			Query(),
			QueryCollection(),
			Mutation(GraphQLCreate),
			Mutation(GraphQLUpdate),
			Mutation(GraphQLDelete),
		}
	}
	named = make([]Operation, 0, len(gql))
	for _, op := range gql {
		named = append(named, f.completeGraphQL(md, op))
	}
	md.s.GraphQLOperations = NewOperations(named...)
	return md
}

func (f *OperationDefaultsFactory) completeREST(md Metadata, op Operation) Operation {
	op = op.WithDefaults(md.Defaults())
	if op.Name() == "" || isProvisional(op.Name()) {
		op = op.WithName(fmt.Sprintf("_api_%s_%s", md.ShortName(), op.Kind()))
	}
	if op.Method() == "" {
		op = op.WithMethod(op.Kind().Method())
	}
	if op.UriTemplate() == "" {
		op = op.WithUriTemplate(DefaultUriTemplate(md.ShortName(), op.IsCollection() || op.Kind() == KindPost))
	}
	if op.PaginationType() == "" {
		op = op.WithPaginationType(PaginationTypePage)
	}
	return op
}

func (f *OperationDefaultsFactory) completeGraphQL(md Metadata, op Operation) Operation {
	op = op.WithDefaults(md.Defaults())
	if op.Name() == "" || isProvisional(op.Name()) {
		switch op.Kind() {
		case KindQuery:
			op = op.WithName(GraphQLItemQuery)
		case KindQueryCollection:
			op = op.WithName(GraphQLCollectionQuery)
		case KindSubscription:
			op = op.WithName(GraphQLSubscription)
		default:
			op = op.WithName(GraphQLCreate)
		}
	}
	if op.PaginationType() == "" {
		paging := f.defaults.GraphQL.CollectionPaging
		if paging == "" {
			paging = PaginationTypeCursor
		}
		op = op.WithPaginationType(paging)
	}
	return op
}

func (f *OperationDefaultsFactory) paginationDefaults() Operation {
	p := f.defaults.Pagination
	op := NewOperation("").
		WithPaginationEnabled(p.Enabled).
		WithPaginationClientEnabled(p.ClientEnabled).
		WithPaginationClientItemsPerPage(p.ClientItemsPerPage).
		WithPaginationPartial(p.Partial).
		WithPaginationClientPartial(p.ClientPartial)
	if p.ItemsPerPage > 0 {
		op = op.WithPaginationItemsPerPage(p.ItemsPerPage)
	}
	if p.MaximumItemsPerPage > 0 {
		op = op.WithPaginationMaximumItemsPerPage(p.MaximumItemsPerPage)
	}
	return op
}

// DefaultUriTemplate returns /{plural snake short name} for collections and
// /{plural snake short name}/{id} for items
func DefaultUriTemplate(shortName string, collection bool) string {
	base := "/" + ustrings.Pluralize(ustrings.ToSnakeCase(shortName))
	if collection {
		return base
	}
	return base + "/{id}"
}
