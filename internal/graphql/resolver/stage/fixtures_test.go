package stage

import (
	"context"
	"testing"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/iri"
	"github.com/Foxprodev/core/internal/security"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type Author struct {
	ID   int    `json:"id" api:"identifier"`
	Name string `json:"name"`
}

type Book struct {
	ID     int     `json:"id" api:"identifier"`
	Title  string  `json:"title"`
	Author *Author `json:"author"`
}

func newRegistry(t *testing.T) *class.Registry {
	t.Helper()
	registry := class.NewRegistry()
	require.NoError(t, registry.Register("Author", Author{}))
	require.NoError(t, registry.Register("Book", Book{}))
	return registry
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
	args := m.Called(resourceClass, dctx)
	return args.Get(0), args.Error(1)
}

type mockSubresources struct {
	mock.Mock
}

func (m *mockSubresources) GetSubresource(ctx context.Context, resourceClass string, ids *ordered.Map, dctx dataprovider.Context) (interface{}, error) {
	args := m.Called(resourceClass, ids.ToMap(), dctx)
	return args.Get(0), args.Error(1)
}

type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) IsGranted(ctx context.Context, resourceClass, expression string, vars security.Vars) (bool, error) {
	args := m.Called(resourceClass, expression, vars)
	return args.Bool(0), args.Error(1)
}

type mockDenormalizer struct {
	mock.Mock
}

func (m *mockDenormalizer) Denormalize(ctx context.Context, data interface{}, resourceClass, format string, sctx *serializer.Context) (interface{}, error) {
	args := m.Called(data.(*ordered.Map).ToMap(), resourceClass, format, sctx.ObjectToPopulate)
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

type mockValidator struct {
	mock.Mock
}

func (m *mockValidator) Validate(ctx context.Context, object interface{}, groups []string) error {
	return m.Called(object, groups).Error(0)
}

// bookNormalizer writes the id and title of books
type bookNormalizer struct{}

func (bookNormalizer) Normalize(_ context.Context, object interface{}, format string, sctx *serializer.Context) (interface{}, error) {
	b := object.(*Book)
	out := ordered.FromPairs("id", b.ID, "title", b.Title)
	if format == serializer.FormatGraphQL {
		out.Set(serializer.ItemResourceClassKey, "Book")
		out.Set(serializer.ItemIdentifiersKey, ordered.FromPairs("id", b.ID))
	}
	return out, nil
}
