package serializer

import (
	"context"
	"testing"
	"time"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/identifier"
	"github.com/Foxprodev/core/internal/iri"
	"github.com/Foxprodev/core/internal/metadata/identifiers"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/security"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type Author struct {
	ID   int    `json:"id" api:"identifier"`
	Name string `json:"name" api:"groups=book"`
}

type Review struct {
	ID     int    `json:"id" api:"identifier"`
	Body   string `json:"body"`
	Rating int    `json:"rating"`
}

type Book struct {
	ID          int        `json:"id" api:"identifier"`
	Title       string     `json:"title" api:"groups=book"`
	Isbn        string     `json:"isbn" api:"security='ROLE_ADMIN' in roles"`
	Price       float64    `json:"price"`
	PublishedAt *time.Time `json:"publishedAt"`
	Author      *Author    `json:"author"`
	Reviews     []*Review  `json:"reviews" api:"readableLink,writableLink"`
	Status      string     `json:"status" api:"default='draft',securityPostDenormalize='ROLE_ADMIN' in roles"`
}

// BookView is the output DTO of a book
type BookView struct {
	Label string `json:"label"`
}

// BookInput is the input DTO of a book
type BookInput struct {
	Heading string `json:"heading"`
}

type mockItems struct {
	mock.Mock
}

func (m *mockItems) GetItem(ctx context.Context, resourceClass string, ids *ordered.Map, dctx dataprovider.Context) (interface{}, error) {
	args := m.Called(resourceClass, ids.Keys())
	return args.Get(0), args.Error(1)
}

type fixture struct {
	registry *class.Registry
	items    *mockItems
	iris     *iri.Converter
	cfg      Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	registry := class.NewRegistry()
	require.NoError(t, registry.Register("Author", Author{}))
	require.NoError(t, registry.Register("Review", Review{}))
	require.NoError(t, registry.Register("Book", Book{}))
	require.NoError(t, registry.RegisterClass("BookView", BookView{}))
	require.NoError(t, registry.RegisterClass("BookInput", BookInput{}))

	names := property.NameChain(registry, nil, nil)
	properties := property.Chain(registry, nil, names, nil)
	extractor := identifiers.NewExtractor(registry, names, properties)
	resources := resource.Chain(resource.ChainOptions{Registry: registry})
	items := &mockItems{}
	iris := iri.NewConverter(registry, resources, extractor, identifier.NewConverter(extractor, properties), items, nil)

	checker, err := security.NewCELChecker(nil, nil)
	require.NoError(t, err)

	return &fixture{
		registry: registry,
		items:    items,
		iris:     iris,
		cfg: Config{
			Registry:    registry,
			Resources:   resources,
			Names:       names,
			Properties:  properties,
			Identifiers: extractor,
			Iris:        iris,
			Checker:     checker,
			Items:       items,
		},
	}
}

func (f *fixture) normalizer() *ItemNormalizer {
	return NewItemNormalizer(f.cfg)
}

func admin(ctx context.Context) context.Context {
	return security.WithUser(ctx, &security.User{ID: "1", Roles: []string{"ROLE_ADMIN"}})
}

func sampleBook() *Book {
	return &Book{
		ID:     7,
		Title:  "Dune",
		Isbn:   "978-0441013593",
		Price:  9.5,
		Author: &Author{ID: 1, Name: "Frank"},
		Reviews: []*Review{
			{ID: 3, Body: "great", Rating: 5},
		},
		Status: "published",
	}
}

func normalized(t *testing.T, v interface{}) *ordered.Map {
	t.Helper()
	m, ok := v.(*ordered.Map)
	require.True(t, ok, "expected an ordered map, got %T", v)
	return m
}
