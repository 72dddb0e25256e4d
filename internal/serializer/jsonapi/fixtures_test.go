package jsonapi

import (
	"context"
	"testing"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/identifier"
	"github.com/Foxprodev/core/internal/iri"
	"github.com/Foxprodev/core/internal/metadata/identifiers"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type Company struct {
	ID   int    `json:"id" api:"identifier"`
	Name string `json:"name"`
}

type Author struct {
	ID      int      `json:"id" api:"identifier"`
	Name    string   `json:"name"`
	Company *Company `json:"company"`
}

type Book struct {
	ID      int       `json:"id" api:"identifier"`
	Title   string    `json:"title"`
	Author  *Author   `json:"author"`
	Editors []*Author `json:"editors"`
	Sequel  *Book     `json:"sequel"`
}

type mockItems struct {
	mock.Mock
}

func (m *mockItems) GetItem(ctx context.Context, resourceClass string, ids *ordered.Map, dctx dataprovider.Context) (interface{}, error) {
	args := m.Called(resourceClass, ids.Keys())
	return args.Get(0), args.Error(1)
}

func newTestNormalizer(t *testing.T) (*ItemNormalizer, *mockItems) {
	t.Helper()

	registry := class.NewRegistry()
	require.NoError(t, registry.Register("Company", Company{}))
	require.NoError(t, registry.Register("Author", Author{}))
	require.NoError(t, registry.Register("Book", Book{}))

	names := property.NameChain(registry, nil, nil)
	properties := property.Chain(registry, nil, names, nil)
	extractor := identifiers.NewExtractor(registry, names, properties)
	resources := resource.Chain(resource.ChainOptions{Registry: registry})
	items := &mockItems{}

	base := serializer.NewItemNormalizer(serializer.Config{
		Registry:    registry,
		Resources:   resources,
		Names:       names,
		Properties:  properties,
		Identifiers: extractor,
		Iris:        iri.NewConverter(registry, resources, extractor, identifier.NewConverter(extractor, properties), items, nil),
		Items:       items,
	})
	return NewItemNormalizer(base, nil), items
}

// library returns a book whose relations reach the same author and company
// through several paths
func library() *Book {
	acme := &Company{ID: 1, Name: "Acme"}
	frank := &Author{ID: 1, Name: "Frank", Company: acme}
	brian := &Author{ID: 2, Name: "Brian", Company: acme}
	book := &Book{ID: 1, Title: "Dune", Author: frank, Editors: []*Author{frank, brian}}
	book.Sequel = book
	return book
}

func get(t *testing.T, m interface{}, path ...string) interface{} {
	t.Helper()
	var current interface{} = m
	for _, key := range path {
		om, ok := current.(*ordered.Map)
		require.True(t, ok, "%q: expected an ordered map, got %T", key, current)
		current, ok = om.Get(key)
		require.True(t, ok, "missing key %q", key)
	}
	return current
}
