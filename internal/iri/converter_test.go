package iri

import (
	"context"
	"testing"
	"time"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/identifier"
	"github.com/Foxprodev/core/internal/metadata/identifiers"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type Dummy struct {
	ID   int    `json:"id" api:"identifier"`
	Name string `json:"name"`
}

type RelatedDummy struct {
	ID int `json:"id" api:"identifier"`
}

type CompositeKey struct {
	Code string    `json:"code" api:"identifier"`
	Day  time.Time `json:"day" api:"identifier"`
}

type mockItemProvider struct {
	mock.Mock
}

func (m *mockItemProvider) GetItem(ctx context.Context, resourceClass string, ids *ordered.Map, dctx dataprovider.Context) (interface{}, error) {
	args := m.Called(resourceClass, ids.Keys())
	return args.Get(0), args.Error(1)
}

func newTestConverter(t *testing.T, items dataprovider.ItemDataProvider) *Converter {
	t.Helper()

	registry := class.NewRegistry()
	require.NoError(t, registry.Register("Dummy", Dummy{}))
	require.NoError(t, registry.Register("RelatedDummy", RelatedDummy{}))
	require.NoError(t, registry.Register("CompositeKey", CompositeKey{}))

	names := property.NameChain(registry, nil, nil)
	properties := property.Chain(registry, nil, names, nil)
	extractor := identifiers.NewExtractor(registry, names, properties)
	resources := resource.Chain(resource.ChainOptions{Registry: registry})

	return NewConverter(registry, resources, extractor, identifier.NewConverter(extractor, properties), items, nil)
}

func TestGetIriFromResourceClass(t *testing.T) {
	c := newTestConverter(t, nil)
	ctx := context.Background()

	iri, err := c.GetIriFromResourceClass(ctx, "RelatedDummy")
	require.NoError(t, err)
	assert.Equal(t, "/related_dummies", iri)

	_, err = c.GetIriFromResourceClass(ctx, "Unknown")
	assert.ErrorIs(t, err, apierr.ErrResourceClassNotFound)
}

func TestGetIriFromItem(t *testing.T) {
	c := newTestConverter(t, nil)
	ctx := context.Background()

	iri, err := c.GetIriFromItem(ctx, &Dummy{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, "/dummies/3", iri)

	iri, err = c.GetIriFromItem(ctx, &CompositeKey{Code: "a", Day: time.Date(2015, 4, 5, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, "/composite_keys/code=a;day=2015-04-05", iri)

	_, err = c.GetIriFromItem(ctx, &Dummy{})
	assert.True(t, apierr.IsInvalidArgument(err), "an item without identifier has no IRI")
}

func TestGetItemFromIri(t *testing.T) {
	items := &mockItemProvider{}
	c := newTestConverter(t, items)
	ctx := context.Background()

	dummy := &Dummy{ID: 3, Name: "three"}
	items.On("GetItem", "Dummy", []string{"id"}).Return(dummy, nil).Once()

	item, err := c.GetItemFromIri(ctx, "http://example.com/dummies/3?foo=bar#frag", Options{})
	require.NoError(t, err)
	assert.Same(t, dummy, item)
	items.AssertExpectations(t)
}

func TestGetItemFromIri_RoundTrip(t *testing.T) {
	items := &mockItemProvider{}
	c := newTestConverter(t, items)
	ctx := context.Background()

	composite := &CompositeKey{Code: "a", Day: time.Date(2015, 4, 5, 0, 0, 0, 0, time.UTC)}
	items.On("GetItem", "CompositeKey", []string{"code", "day"}).Return(composite, nil)

	iri, err := c.GetIriFromItem(ctx, composite)
	require.NoError(t, err)
	item, err := c.GetItemFromIri(ctx, iri, Options{})
	require.NoError(t, err)
	assert.Same(t, composite, item)
}

func TestGetItemFromIri_Errors(t *testing.T) {
	items := &mockItemProvider{}
	c := newTestConverter(t, items)
	ctx := context.Background()

	_, err := c.GetItemFromIri(ctx, "/unknown/1", Options{})
	assert.ErrorIs(t, err, apierr.ErrInvalidIRI)
	assert.Contains(t, err.Error(), `No route matches "/unknown/1".`)

	_, err = c.GetItemFromIri(ctx, "/dummies", Options{})
	assert.ErrorIs(t, err, apierr.ErrInvalidIRI)

	_, err = c.GetItemFromIri(ctx, "/composite_keys/code=a", Options{})
	assert.ErrorIs(t, err, apierr.ErrInvalidIdentifier)

	items.On("GetItem", "Dummy", []string{"id"}).Return(nil, nil).Once()
	_, err = c.GetItemFromIri(ctx, "/dummies/42", Options{})
	assert.True(t, apierr.IsNotFound(err))
	assert.Contains(t, err.Error(), `Item not found for "/dummies/42".`)
}

func TestGetItemFromIri_Reference(t *testing.T) {
	items := &mockItemProvider{}
	c := newTestConverter(t, items)

	item, err := c.GetItemFromIri(context.Background(), "/dummies/7", Options{Reference: true})
	require.NoError(t, err)
	assert.Equal(t, &Dummy{ID: 7}, item)
	items.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
}
