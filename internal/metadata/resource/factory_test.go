package resource

import (
	"context"
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/cache"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/cli/config"
	"github.com/Foxprodev/core/internal/metadata/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDummy struct {
	ID     int    `json:"id" api:"identifier"`
	Name   string `json:"name" filter:"search=partial,order"`
	Active bool   `json:"active" filter:"boolean"`
	Price  int    `json:"price" filter:"order,range"`
}

type testDeclared struct {
	ID int `json:"id"`
}

func (testDeclared) APIResources() []Metadata {
	return []Metadata{
		New("").
			WithShortName("Declared").
			WithOperations(
				Get().WithRead(false),
				GetCollection().WithName("declared_list").WithPaginationItemsPerPage(5),
			).
			WithGraphQLDisabled(true),
	}
}

const testResourceYAML = `
resources:
  Dummy:
    shortName: RelatedDummy
    description: A dummy
    defaults:
      security: "'ROLE_USER' in roles"
    operations:
      - kind: get
      - kind: get_collection
        paginationItemsPerPage: 5
        order: {name: DESC, id: ASC}
        filters: [custom_filter]
      - kind: post
        name: create_dummy
        security: "'ROLE_ADMIN' in roles"
    graphQlOperations:
      - kind: query_collection
        paginationType: page
`

func newTestDefaults() Defaults {
	cfg := config.Default()
	cfg.GraphQL.Enabled = true
	return DefaultsFromConfig(cfg)
}

func newTestFactory(t *testing.T, yaml string) CollectionFactory {
	registry := class.NewRegistry()
	require.NoError(t, registry.Register("Dummy", testDummy{}))
	require.NoError(t, registry.Register("Declared", testDeclared{}))
	require.NoError(t, registry.RegisterClass("Output", struct{ Total int }{}))

	opts := ChainOptions{Registry: registry, Defaults: newTestDefaults()}
	if yaml != "" {
		opts.YAML = extractor.FromBytes([]byte(yaml))
	}
	return Chain(opts)
}

func TestChain_DefaultOperations(t *testing.T) {
	f := newTestFactory(t, "")

	c, err := f.Create(context.Background(), "Dummy")
	require.NoError(t, err)
	require.Len(t, c.Metadata, 1)

	md := c.Metadata[0]
	assert.Equal(t, "Dummy", md.ShortName())
	assert.Equal(t, []string{
		"_api_Dummy_get",
		"_api_Dummy_get_collection",
		"_api_Dummy_post",
		"_api_Dummy_put",
		"_api_Dummy_patch",
		"_api_Dummy_delete",
	}, md.Operations().Names())
	assert.Equal(t, []string{"item_query", "collection_query", "create", "update", "delete"}, md.GraphQLOperations().Names())

	get, _ := md.Operations().Get("_api_Dummy_get")
	assert.Equal(t, "/dummies/{id}", get.UriTemplate())
	assert.Equal(t, "GET", get.Method())
	assert.Equal(t, "Dummy", get.Class())

	list, _ := md.Operations().Get("_api_Dummy_get_collection")
	assert.Equal(t, "/dummies", list.UriTemplate())
	require.NotNil(t, list.PaginationItemsPerPage())
	assert.Equal(t, 30, *list.PaginationItemsPerPage())
	assert.True(t, *list.PaginationEnabled())
	assert.Equal(t, PaginationTypePage, list.PaginationType())

	gqlList, _ := md.GraphQLOperations().Get("collection_query")
	assert.Equal(t, PaginationTypeCursor, gqlList.PaginationType())
}

func TestChain_FiltersFromTags(t *testing.T) {
	f := newTestFactory(t, "")

	c, err := f.Create(context.Background(), "Dummy")
	require.NoError(t, err)
	md := c.Metadata[0]

	list, _ := md.Operations().Get("_api_Dummy_get_collection")
	assert.Equal(t, []string{
		"annotated_dummy_search",
		"annotated_dummy_order",
		"annotated_dummy_boolean",
		"annotated_dummy_range",
	}, list.Filters())

	get, _ := md.Operations().Get("_api_Dummy_get")
	assert.Empty(t, get.Filters())
}

func TestFilterDeclarations(t *testing.T) {
	registry := class.NewRegistry()
	require.NoError(t, registry.Register("Dummy", testDummy{}))

	decls := FilterDeclarations(registry, "Dummy")
	require.Len(t, decls, 4)
	assert.Equal(t, "search", decls[0].Type)
	assert.Equal(t, []FilterProperty{{Name: "name", Strategy: "partial"}}, decls[0].Properties)
	assert.Equal(t, []FilterProperty{{Name: "name"}, {Name: "price"}}, decls[1].Properties)
	assert.Empty(t, FilterDeclarations(registry, "Unknown"))
}

func TestChain_YAML(t *testing.T) {
	f := newTestFactory(t, testResourceYAML)

	c, err := f.Create(context.Background(), "Dummy")
	require.NoError(t, err)
	require.Len(t, c.Metadata, 1)
	md := c.Metadata[0]

	assert.Equal(t, "RelatedDummy", md.ShortName())
	assert.Equal(t, []string{"_api_RelatedDummy_get", "_api_RelatedDummy_get_collection", "create_dummy"}, md.Operations().Names())

	list, _ := md.Operations().Get("_api_RelatedDummy_get_collection")
	assert.Equal(t, "/related_dummies", list.UriTemplate())
	assert.Equal(t, 5, *list.PaginationItemsPerPage())
	assert.Equal(t, []OrderClause{{Field: "name", Direction: "DESC"}, {Field: "id", Direction: "ASC"}}, list.Order())
	assert.Equal(t, "custom_filter", list.Filters()[0])
	assert.Equal(t, "'ROLE_USER' in roles", list.Security())
	assert.Equal(t, "A dummy", list.Description())

	create, _ := md.Operations().Get("create_dummy")
	assert.Equal(t, "'ROLE_ADMIN' in roles", create.Security())
	assert.Equal(t, "/related_dummies", create.UriTemplate())

	assert.Equal(t, []string{"collection_query"}, md.GraphQLOperations().Names())
	gql, _ := md.GraphQLOperations().Get("collection_query")
	assert.Equal(t, PaginationTypePage, gql.PaginationType())
}

func TestChain_YAMLRejectsUnknownKind(t *testing.T) {
	f := newTestFactory(t, `
resources:
  Dummy:
    operations:
      - kind: head
`)
	_, err := f.Create(context.Background(), "Dummy")
	require.Error(t, err)
	assert.True(t, apierr.IsConfiguration(err))
}

func TestChain_Declarations(t *testing.T) {
	f := newTestFactory(t, "")

	c, err := f.Create(context.Background(), "Declared")
	require.NoError(t, err)
	require.Len(t, c.Metadata, 1)
	md := c.Metadata[0]

	assert.Equal(t, "Declared", md.Class())
	assert.Equal(t, []string{"_api_Declared_get", "declared_list"}, md.Operations().Names())
	assert.Zero(t, md.GraphQLOperations().Len())

	get, _ := md.Operations().Get("_api_Declared_get")
	assert.False(t, get.CanRead())

	op, err := c.Operation("", true, true)
	require.NoError(t, err)
	assert.Equal(t, "declared_list", op.Name())
	assert.Equal(t, 5, *op.PaginationItemsPerPage())
}

func TestChain_UnknownClass(t *testing.T) {
	f := newTestFactory(t, "")

	_, err := f.Create(context.Background(), "Nope")
	assert.ErrorIs(t, err, apierr.ErrResourceClassNotFound)

	_, err = f.Create(context.Background(), "Output")
	assert.ErrorIs(t, err, apierr.ErrResourceClassNotFound)
}

func TestCachedCollectionFactory(t *testing.T) {
	calls := 0
	inner := CollectionFactoryFunc(func(ctx context.Context, resourceClass string) (MetadataCollection, error) {
		calls++
		md := New(resourceClass).WithShortName("Dummy").WithOperations(Get().WithName("get").WithPaginationItemsPerPage(7))
		return NewMetadataCollection(resourceClass, md), nil
	})

	pool := cache.NewMemoryCache()
	defer pool.Close()
	ctx := context.Background()

	f := NewCachedCollectionFactory(inner, pool, nil, nil)
	first, err := f.Create(ctx, "Dummy")
	require.NoError(t, err)
	second, err := f.Create(ctx, "Dummy")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	// a fresh factory on the same pool decodes the stored collection
	other := NewCachedCollectionFactory(inner, pool, nil, nil)
	decoded, err := other.Create(ctx, "Dummy")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	op, err := decoded.Operation("get", false, false)
	require.NoError(t, err)
	assert.Equal(t, 7, *op.PaginationItemsPerPage())
}

func TestRegistryNameFactory(t *testing.T) {
	registry := class.NewRegistry()
	require.NoError(t, registry.Register("B", testDummy{}))
	require.NoError(t, registry.RegisterClass("Dto", testDeclared{}))

	names, err := NewRegistryNameFactory(registry).Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names)
}
