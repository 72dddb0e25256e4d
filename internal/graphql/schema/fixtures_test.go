package schema

import (
	"context"
	"testing"
	"time"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/cli/config"
	"github.com/Foxprodev/core/internal/filter"
	"github.com/Foxprodev/core/internal/graphql/resolver"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/pagination"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/require"
)

type Author struct {
	ID    int     `json:"id" api:"identifier"`
	Name  string  `json:"name"`
	Books []*Book `json:"books"`
}

type Book struct {
	ID          int                    `json:"id" api:"identifier"`
	Title       string                 `json:"title" filter:"search,order"`
	Price       float64                `json:"price" filter:"range"`
	PublishedAt *time.Time             `json:"publishedAt"`
	Tags        []string               `json:"tags"`
	Meta        map[string]interface{} `json:"meta"`
	Author      *Author                `json:"author"`
	Publisher   *Publisher             `json:"publisher"`
}

// Publisher is a resource without GraphQL operations
type Publisher struct {
	ID    int     `json:"id" api:"identifier"`
	Name  string  `json:"name"`
	Books []*Book `json:"books"`
}

func (Publisher) APIResources() []resource.Metadata {
	return []resource.Metadata{resource.New("Publisher").WithGraphQLDisabled(true)}
}

type options struct {
	paging   string
	maxDepth int
}

func newBuilder(t *testing.T, opts options) *SchemaBuilder {
	t.Helper()

	registry := class.NewRegistry()
	require.NoError(t, registry.Register("Book", Book{}))
	require.NoError(t, registry.Register("Author", Author{}))
	require.NoError(t, registry.Register("Publisher", Publisher{}))

	names := property.NameChain(registry, nil, nil)
	properties := property.Chain(registry, nil, names, nil)
	resources := resource.Chain(resource.ChainOptions{
		Registry: registry,
		Defaults: resource.Defaults{
			Pagination: config.PaginationConfig{Enabled: true, ItemsPerPage: 30},
			GraphQL:    config.GraphQLConfig{Enabled: true, CollectionPaging: opts.paging},
		},
	})
	locator, err := filter.NewLocatorFromDeclarations(registry, nil)
	require.NoError(t, err)

	p := pagination.New(pagination.DefaultOptions())
	types := NewTypeBuilder(NewTypesContainer(), p)
	fields := NewFieldsBuilder(FieldsConfig{
		Registry:   registry,
		Resources:  resources,
		Properties: properties,
		Names:      names,
		Filters:    locator,
		Pagination: p,
		Resolvers:  resolver.NewFactory(resolver.Config{Registry: registry}),
		Types:      types,
		MaxDepth:   opts.maxDepth,
	})
	return NewSchemaBuilder(resource.NewRegistryNameFactory(registry), resources, fields, nil)
}

func build(t *testing.T, opts options) graphql.Schema {
	t.Helper()
	s, err := newBuilder(t, opts).Build(context.Background())
	require.NoError(t, err)
	return s
}

func object(t *testing.T, s graphql.Schema, name string) *graphql.Object {
	t.Helper()
	o, ok := s.Type(name).(*graphql.Object)
	require.True(t, ok, "%s is not an object type", name)
	return o
}

func input(t *testing.T, s graphql.Schema, name string) *graphql.InputObject {
	t.Helper()
	in, ok := s.Type(name).(*graphql.InputObject)
	require.True(t, ok, "%s is not an input type", name)
	return in
}

// fieldTypes maps field names to type names
func fieldTypes(fields graphql.FieldDefinitionMap) map[string]string {
	out := map[string]string{}
	for name, f := range fields {
		out[name] = f.Type.String()
	}
	return out
}

func inputTypes(fields graphql.InputObjectFieldMap) map[string]string {
	out := map[string]string{}
	for name, f := range fields {
		out[name] = f.Type.String()
	}
	return out
}

func args(f *graphql.FieldDefinition) map[string]string {
	out := map[string]string{}
	for _, a := range f.Args {
		out[a.Name()] = a.Type.String()
	}
	return out
}
