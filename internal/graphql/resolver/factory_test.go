package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/graphql/resolver/stage"
	"github.com/Foxprodev/core/internal/iri"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/pagination"
	"github.com/Foxprodev/core/internal/security"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type Book struct {
	ID    int    `json:"id" api:"identifier"`
	Title string `json:"title"`
}

type mockIris struct {
	mock.Mock
}

func (m *mockIris) GetIriFromItem(ctx context.Context, item interface{}) (string, error) {
	args := m.Called(item)
	return args.String(0), args.Error(1)
}

func (m *mockIris) GetItemFromIri(ctx context.Context, iri string, opts iri.Options) (interface{}, error) {
	args := m.Called(iri)
	return args.Get(0), args.Error(1)
}

type mockCollections struct {
	mock.Mock
}

func (m *mockCollections) GetCollection(ctx context.Context, resourceClass string, dctx dataprovider.Context) (interface{}, error) {
	args := m.Called(resourceClass, dctx.Filters.Keys())
	return args.Get(0), args.Error(1)
}

type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) IsGranted(ctx context.Context, resourceClass, expression string, vars security.Vars) (bool, error) {
	args := m.Called(resourceClass, expression)
	return args.Bool(0), args.Error(1)
}

type mockDenormalizer struct {
	mock.Mock
}

func (m *mockDenormalizer) Denormalize(ctx context.Context, data interface{}, resourceClass, format string, sctx *serializer.Context) (interface{}, error) {
	args := m.Called(data.(*ordered.Map).ToMap(), resourceClass)
	return args.Get(0), args.Error(1)
}

type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) Persist(ctx context.Context, object interface{}) (interface{}, error) {
	args := m.Called(object)
	return args.Get(0), args.Error(1)
}

func (m *mockPersister) Remove(ctx context.Context, object interface{}) error {
	return m.Called(object).Error(0)
}

// bookNormalizer exposes books the way the item normalizer does for GraphQL
type bookNormalizer struct{}

func (bookNormalizer) Normalize(_ context.Context, object interface{}, format string, sctx *serializer.Context) (interface{}, error) {
	b := object.(*Book)
	return ordered.FromPairs(
		"id", fmt.Sprintf("/books/%d", b.ID),
		"_id", b.ID,
		"title", b.Title,
		serializer.ItemResourceClassKey, "Book",
		serializer.ItemIdentifiersKey, ordered.FromPairs("id", b.ID),
	), nil
}

type env struct {
	iris        *mockIris
	collections *mockCollections
	checker     *mockChecker
	denorm      *mockDenormalizer
	persister   *mockPersister
	spans       *tracetest.SpanRecorder
	logs        *observer.ObservedLogs
	factory     *Factory
}

func newEnv(t *testing.T) *env {
	t.Helper()
	registry := class.NewRegistry()
	require.NoError(t, registry.Register("Book", Book{}))

	e := &env{
		iris:        &mockIris{},
		collections: &mockCollections{},
		checker:     &mockChecker{},
		denorm:      &mockDenormalizer{},
		persister:   &mockPersister{},
		spans:       tracetest.NewSpanRecorder(),
	}
	core, logs := observer.New(zapcore.ErrorLevel)
	e.logs = logs

	e.factory = NewFactory(Config{
		Stages: Stages{
			Read: stage.NewReadStage(stage.ReadConfig{
				Registry:    registry,
				Iris:        e.iris,
				Collections: e.collections,
			}),
			Security:                stage.NewSecurityStage(e.checker),
			SecurityPostDenormalize: stage.NewSecurityPostDenormalizeStage(e.checker),
			Serialize:               stage.NewSerializeStage(bookNormalizer{}, pagination.New(pagination.DefaultOptions())),
			Deserialize:             stage.NewDeserializeStage(e.denorm),
			Validate:                stage.NewValidateStage(nil),
			Write:                   stage.NewWriteStage(e.persister),
		},
		Registry: registry,
		Tracer:   sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(e.spans)).Tracer("test"),
		Logger:   zap.New(core),
	})
	return e
}

// schema wires the factory into a small hand-built schema
func (e *env) schema(t *testing.T, item, collection, create resource.Operation) graphql.Schema {
	t.Helper()
	book := graphql.NewObject(graphql.ObjectConfig{
		Name: "Book",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"_id":   &graphql.Field{Type: graphql.Int},
			"title": &graphql.Field{Type: graphql.String},
		},
	})
	order := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BookFilter_order",
		Fields: graphql.InputObjectConfigFieldMap{
			"title": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"id":    &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "createBookInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":            &graphql.InputObjectFieldConfig{Type: graphql.String},
			"clientMutationId": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	payload := graphql.NewObject(graphql.ObjectConfig{
		Name: "createBookPayload",
		Fields: graphql.Fields{
			"book":             &graphql.Field{Type: book},
			"clientMutationId": &graphql.Field{Type: graphql.String},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"book": &graphql.Field{
					Type:    book,
					Args:    graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}},
					Resolve: e.factory.Item("Book", "Book", item),
				},
				"books": &graphql.Field{
					Type:    graphql.NewList(book),
					Args:    graphql.FieldConfigArgument{"order": &graphql.ArgumentConfig{Type: graphql.NewList(order)}},
					Resolve: e.factory.Collection("Book", "Book", collection),
				},
			},
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"createBook": &graphql.Field{
					Type:    payload,
					Args:    graphql.FieldConfigArgument{"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(input)}},
					Resolve: e.factory.Mutation("Book", create),
				},
			},
		}),
	})
	require.NoError(t, err)
	return schema
}

func (e *env) do(t *testing.T, schema graphql.Schema, query string) *graphql.Result {
	t.Helper()
	return graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: query,
		Context:       context.Background(),
	})
}

func (e *env) spanNames() []string {
	var names []string
	for _, s := range e.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func defaultSchema(t *testing.T, e *env) graphql.Schema {
	return e.schema(t,
		resource.Query().WithName(resource.GraphQLItemQuery),
		resource.QueryCollection().WithName(resource.GraphQLCollectionQuery).WithPaginationEnabled(false),
		resource.Mutation(resource.GraphQLCreate),
	)
}

func TestItem(t *testing.T) {
	e := newEnv(t)
	e.iris.On("GetItemFromIri", "/books/1").Return(&Book{ID: 1, Title: "Dune"}, nil)

	result := e.do(t, defaultSchema(t, e), `{ book(id: "/books/1") { id _id title } }`)
	require.Empty(t, result.Errors)
	assert.Equal(t, map[string]interface{}{
		"book": map[string]interface{}{"id": "/books/1", "_id": 1, "title": "Dune"},
	}, result.Data)

	assert.Equal(t, []string{
		"graphql.stage.read",
		"graphql.stage.security",
		"graphql.stage.security_post_denormalize",
		"graphql.stage.serialize",
		"graphql.resolve.item",
	}, e.spanNames())
	e.checker.AssertNotCalled(t, "IsGranted", mock.Anything, mock.Anything)
}

func TestItem_Missing(t *testing.T) {
	e := newEnv(t)
	e.iris.On("GetItemFromIri", "/books/4").Return(nil, nil)

	result := e.do(t, defaultSchema(t, e), `{ book(id: "/books/4") { title } }`)
	require.Empty(t, result.Errors)
	assert.Equal(t, map[string]interface{}{"book": nil}, result.Data)
}

func TestItem_AccessDenied(t *testing.T) {
	e := newEnv(t)
	e.iris.On("GetItemFromIri", "/books/1").Return(&Book{ID: 1, Title: "Dune"}, nil)
	e.checker.On("IsGranted", "Book", "user.admin").Return(false, nil)

	schema := e.schema(t,
		resource.Query().WithName(resource.GraphQLItemQuery).WithSecurity("user.admin"),
		resource.QueryCollection(),
		resource.Mutation(resource.GraphQLCreate),
	)
	result := e.do(t, schema, `{ book(id: "/books/1") { title } }`)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Access Denied.", result.Errors[0].Message)
	assert.Equal(t, 403, result.Errors[0].Extensions["status"])
	assert.Equal(t, CategoryUser, result.Errors[0].Extensions["category"])

	var resolveSpan sdktrace.ReadOnlySpan
	for _, s := range e.spans.Ended() {
		if s.Name() == "graphql.resolve.item" {
			resolveSpan = s
		}
	}
	require.NotNil(t, resolveSpan)
	assert.Equal(t, codes.Error, resolveSpan.Status().Code)
	assert.Zero(t, e.logs.Len(), "client errors are not logged")
}

func TestCollection(t *testing.T) {
	e := newEnv(t)
	e.collections.On("GetCollection", "Book", []string{"order"}).
		Return([]interface{}{&Book{ID: 1, Title: "Dune"}, &Book{ID: 2, Title: "Emma"}}, nil)

	result := e.do(t, defaultSchema(t, e), `{ books(order: [{title: "ASC"}]) { title } }`)
	require.Empty(t, result.Errors)
	assert.Equal(t, map[string]interface{}{
		"books": []interface{}{
			map[string]interface{}{"title": "Dune"},
			map[string]interface{}{"title": "Emma"},
		},
	}, result.Data)
}

func TestCollection_InternalError(t *testing.T) {
	e := newEnv(t)
	e.collections.On("GetCollection", "Book", []string{}).Return(nil, errors.New("connection refused"))

	result := e.do(t, defaultSchema(t, e), `{ books { title } }`)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Internal Server Error", result.Errors[0].Message)
	assert.Equal(t, CategoryInternal, result.Errors[0].Extensions["category"])

	require.Equal(t, 1, e.logs.Len())
	assert.Equal(t, "connection refused", e.logs.All()[0].ContextMap()["error"])
}

func TestMutation_Create(t *testing.T) {
	e := newEnv(t)
	created := &Book{Title: "Dune"}
	saved := &Book{ID: 3, Title: "Dune"}
	e.denorm.On("Denormalize", map[string]interface{}{"title": "Dune"}, "Book").Return(created, nil)
	e.persister.On("Persist", created).Return(saved, nil)

	result := e.do(t, defaultSchema(t, e), `mutation {
		createBook(input: {title: "Dune", clientMutationId: "m1"}) {
			book { id title }
			clientMutationId
		}
	}`)
	require.Empty(t, result.Errors)
	assert.Equal(t, map[string]interface{}{
		"createBook": map[string]interface{}{
			"book":             map[string]interface{}{"id": "/books/3", "title": "Dune"},
			"clientMutationId": "m1",
		},
	}, result.Data)

	assert.Equal(t, []string{
		"graphql.stage.read",
		"graphql.stage.security",
		"graphql.stage.deserialize",
		"graphql.stage.security_post_denormalize",
		"graphql.stage.validate",
		"graphql.stage.write",
		"graphql.stage.serialize",
		"graphql.resolve.mutation",
	}, e.spanNames())
	e.iris.AssertNotCalled(t, "GetItemFromIri", mock.Anything)
}

func TestMutation_DeserializeError(t *testing.T) {
	e := newEnv(t)
	e.denorm.On("Denormalize", map[string]interface{}{"title": "Dune"}, "Book").
		Return(nil, errors.New("boom"))

	result := e.do(t, defaultSchema(t, e), `mutation { createBook(input: {title: "Dune"}) { clientMutationId } }`)
	require.Len(t, result.Errors, 1)
	e.persister.AssertNotCalled(t, "Persist", mock.Anything)
}

func TestNewFactory_Defaults(t *testing.T) {
	f := NewFactory(Config{})
	assert.NotNil(t, f.tracer)
	assert.NotNil(t, f.logger)
}

func TestWrapField(t *testing.T) {
	assert.Equal(t, "book", wrapField("App.Book", resource.Mutation(resource.GraphQLCreate)))
	assert.Equal(t, "novel", wrapField("App.Book", resource.Mutation(resource.GraphQLCreate).WithShortName("Novel")))
}
