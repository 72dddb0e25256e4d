package stage

import (
	"context"
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type readEnv struct {
	iris         *mockIris
	collections  *mockCollections
	subresources *mockSubresources
	logs         *observer.ObservedLogs
	stage        *ReadStage
}

func newReadEnv(t *testing.T) *readEnv {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	e := &readEnv{
		iris:         &mockIris{},
		collections:  &mockCollections{},
		subresources: &mockSubresources{},
		logs:         logs,
	}
	e.stage = NewReadStage(ReadConfig{
		Registry:          newRegistry(t),
		Iris:              e.iris,
		Collections:       e.collections,
		Subresources:      e.subresources,
		DeprecationNotice: true,
		Logger:            zap.New(core),
	})
	return e
}

func TestReadStage_DisabledReadsNothing(t *testing.T) {
	e := newReadEnv(t)
	ctx := context.Background()

	item, err := e.stage.Apply(ctx, "Book", "Book", resource.Query().WithRead(false), Context{
		Args: ordered.FromPairs("id", "/books/1"),
	})
	require.NoError(t, err)
	assert.Nil(t, item)

	mutation, err := e.stage.Apply(ctx, "Book", "Book", resource.Mutation(resource.GraphQLUpdate).WithRead(false), Context{
		Args:       ordered.FromPairs("input", ordered.FromPairs("id", "/books/1")),
		IsMutation: true,
	})
	require.NoError(t, err)
	assert.Nil(t, mutation)

	collection, err := e.stage.Apply(ctx, "Book", "Book", resource.QueryCollection().WithRead(false), Context{
		Args:         ordered.FromPairs("title", "Dune"),
		IsCollection: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{}, collection)

	nested, err := e.stage.Apply(ctx, "Book", "Author", resource.QueryCollection().WithRead(false), Context{
		Args:         ordered.New(),
		Source:       map[string]interface{}{"books": []interface{}{}, serializer.ItemIdentifiersKey: ordered.FromPairs("id", 1)},
		Field:        "books",
		IsCollection: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{}, nested)

	e.iris.AssertNotCalled(t, "GetItemFromIri", mock.Anything)
	e.collections.AssertNotCalled(t, "GetCollection", mock.Anything, mock.Anything)
	e.subresources.AssertNotCalled(t, "GetSubresource", mock.Anything, mock.Anything, mock.Anything)
}

func TestReadStage_Item(t *testing.T) {
	ctx := context.Background()

	t.Run("without identifier", func(t *testing.T) {
		e := newReadEnv(t)
		item, err := e.stage.Apply(ctx, "Book", "Book", resource.Query(), Context{Args: ordered.New()})
		require.NoError(t, err)
		assert.Nil(t, item)
		e.iris.AssertNotCalled(t, "GetItemFromIri", mock.Anything)
	})

	t.Run("found", func(t *testing.T) {
		e := newReadEnv(t)
		book := &Book{ID: 1}
		e.iris.On("GetItemFromIri", "/books/1").Return(book, nil)

		item, err := e.stage.Apply(ctx, "Book", "Book", resource.Query(), Context{Args: ordered.FromPairs("id", "/books/1")})
		require.NoError(t, err)
		assert.Same(t, book, item)
	})

	t.Run("query for a missing item", func(t *testing.T) {
		e := newReadEnv(t)
		e.iris.On("GetItemFromIri", "/books/9").Return(nil, apierr.NotFound("Item not found for %q.", "/books/9"))

		item, err := e.stage.Apply(ctx, "Book", "Book", resource.Query(), Context{Args: ordered.FromPairs("id", "/books/9")})
		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("invalid IRI", func(t *testing.T) {
		e := newReadEnv(t)
		e.iris.On("GetItemFromIri", "/nope/1").Return(nil, apierr.ErrInvalidIRI)

		_, err := e.stage.Apply(ctx, "Book", "Book", resource.Query(), Context{Args: ordered.FromPairs("id", "/nope/1")})
		assert.ErrorIs(t, err, apierr.ErrInvalidIRI)
	})

	t.Run("mutation for a missing item", func(t *testing.T) {
		e := newReadEnv(t)
		e.iris.On("GetItemFromIri", "/books/9").Return(nil, apierr.NotFound("Item not found for %q.", "/books/9"))

		_, err := e.stage.Apply(ctx, "Book", "Book", resource.Mutation(resource.GraphQLUpdate), Context{
			Args:       ordered.FromPairs("input", map[string]interface{}{"id": "/books/9"}),
			IsMutation: true,
		})
		require.Error(t, err)
		assert.True(t, apierr.IsNotFound(err))
		assert.Equal(t, `Item "/books/9" not found.`, err.Error())
	})

	t.Run("mutation for an item of another resource", func(t *testing.T) {
		e := newReadEnv(t)
		e.iris.On("GetItemFromIri", "/authors/1").Return(&Author{ID: 1}, nil)

		_, err := e.stage.Apply(ctx, "Book", "Book", resource.Mutation(resource.GraphQLDelete).WithShortName("Book"), Context{
			Args:       ordered.FromPairs("input", ordered.FromPairs("id", "/authors/1")),
			IsMutation: true,
		})
		require.Error(t, err)
		assert.True(t, apierr.IsUnexpectedValue(err))
		assert.Contains(t, err.Error(), `Item "/authors/1" did not match expected type "Book".`)
	})
}

func TestReadStage_Collection(t *testing.T) {
	e := newReadEnv(t)
	books := []interface{}{&Book{ID: 1}}
	e.collections.On("GetCollection", "Book", mock.Anything).Return(books, nil)

	op := resource.QueryCollection().WithClass("Book")
	result, err := e.stage.Apply(context.Background(), "Book", "Book", op, Context{
		Args:         ordered.FromPairs("first", 10, "title", "Dune"),
		IsCollection: true,
	})
	require.NoError(t, err)
	assert.Equal(t, books, result)

	dctx := e.collections.Calls[0].Arguments.Get(1).(dataprovider.Context)
	assert.True(t, dctx.GraphQL)
	assert.Equal(t, op, dctx.Operation)
	assert.Equal(t, []string{"first", "title"}, dctx.Filters.Keys())
}

func TestReadStage_CollectionWithoutRoot(t *testing.T) {
	e := newReadEnv(t)
	result, err := e.stage.Apply(context.Background(), "Book", "", resource.QueryCollection(), Context{
		Args:         ordered.New(),
		IsCollection: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{}, result)
	e.collections.AssertNotCalled(t, "GetCollection", mock.Anything, mock.Anything)
}

func TestReadStage_Subresource(t *testing.T) {
	e := newReadEnv(t)
	books := []interface{}{&Book{ID: 2}}
	e.subresources.On("GetSubresource", "Book", map[string]interface{}{"id": 1}, mock.Anything).Return(books, nil)

	result, err := e.stage.Apply(context.Background(), "Book", "Author", resource.QueryCollection(), Context{
		Args: ordered.New(),
		Source: map[string]interface{}{
			"books":                       []interface{}{},
			serializer.ItemIdentifiersKey: ordered.FromPairs("id", 1),
		},
		Field:        "books",
		IsCollection: true,
	})
	require.NoError(t, err)
	assert.Equal(t, books, result)

	dctx := e.subresources.Calls[0].Arguments.Get(2).(dataprovider.Context)
	assert.Equal(t, "books", dctx.Operation.SubresourceProperty())
	assert.Equal(t, []resource.Link{{Parameter: "id", Class: "Author", Property: "id"}}, dctx.Operation.Identifiers())
	e.collections.AssertNotCalled(t, "GetCollection", mock.Anything, mock.Anything)
}

func TestReadStage_SubresourceMustBeIterable(t *testing.T) {
	e := newReadEnv(t)
	e.subresources.On("GetSubresource", "Book", mock.Anything, mock.Anything).Return(&Book{ID: 2}, nil)

	_, err := e.stage.Apply(context.Background(), "Book", "Author", resource.QueryCollection(), Context{
		Args: ordered.New(),
		Source: map[string]interface{}{
			"books":                       nil,
			serializer.ItemIdentifiersKey: ordered.FromPairs("id", 1),
		},
		Field:        "books",
		IsCollection: true,
	})
	assert.True(t, apierr.IsUnexpectedValue(err))
}

func TestNormalizeFilters_KeepsDeclaredOrder(t *testing.T) {
	e := newReadEnv(t)

	for name, order := range map[string]interface{}{
		"object": ordered.FromPairs("some_field", "ASC", "localField", "ASC"),
		"list": []interface{}{
			ordered.FromPairs("some_field", "ASC"),
			ordered.FromPairs("localField", "ASC"),
		},
	} {
		t.Run(name, func(t *testing.T) {
			filters := e.stage.NormalizeFilters(ordered.FromPairs("order", order))

			raw, ok := filters.Get("order")
			require.True(t, ok)
			keys := raw.(*ordered.Map).Keys()
			assert.Equal(t, []string{"some_field", "some.field", "localField"}, keys)
		})
	}
	assert.Zero(t, e.logs.Len())
}

func TestNormalizeFilters_LegacySyntax(t *testing.T) {
	e := newReadEnv(t)

	filters := e.stage.NormalizeFilters(ordered.FromPairs("order", []interface{}{
		ordered.FromPairs("title", "DESC", "id", "ASC"),
	}))

	raw, _ := filters.Get("order")
	assert.Equal(t, []string{"title", "id"}, raw.(*ordered.Map).Keys())

	entries := e.logs.FilterMessage("deprecated filter syntax").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "order", entries[0].ContextMap()["filter"])
	assert.Equal(t, "order: [{title: DESC}, {id: ASC}]", entries[0].ContextMap()["expected"])
}

func TestNormalizeFilters_ListsAndNesting(t *testing.T) {
	e := newReadEnv(t)

	filters := e.stage.NormalizeFilters(ordered.FromPairs(
		"title_list", []interface{}{"Dune", "Emma"},
		"author_name", "Frank",
		"price", map[string]interface{}{"gt": "10"},
	))

	assert.Equal(t, []string{"title", "author_name", "author.name", "price"}, filters.Keys())
	title, _ := filters.Get("title")
	assert.Equal(t, []interface{}{"Dune", "Emma"}, title)
	price, _ := filters.Get("price")
	assert.Equal(t, []string{"gt"}, price.(*ordered.Map).Keys())
}
