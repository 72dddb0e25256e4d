package resource

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_WithIsCopyOnWrite(t *testing.T) {
	base := GetCollection().WithPaginationItemsPerPage(10)
	changed := base.WithPaginationItemsPerPage(20).WithFilters("a", "b")

	require.NotNil(t, base.PaginationItemsPerPage())
	assert.Equal(t, 10, *base.PaginationItemsPerPage())
	assert.Empty(t, base.Filters())
	assert.Equal(t, 20, *changed.PaginationItemsPerPage())
	assert.Equal(t, []string{"a", "b"}, changed.Filters())

	filters := changed.Filters()
	filters[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, changed.Filters())
}

func TestOperation_StageFlagsDefaultToTrue(t *testing.T) {
	op := Get()
	assert.True(t, op.CanRead())
	assert.True(t, op.CanDeserialize())
	assert.True(t, op.CanValidate())
	assert.True(t, op.CanWrite())
	assert.True(t, op.CanSerialize())
	assert.False(t, op.Mercure())

	op = op.WithRead(false).WithSerialize(false)
	assert.False(t, op.CanRead())
	assert.False(t, op.CanSerialize())
	assert.True(t, op.CanWrite())
}

func TestOperation_WithDefaultsFillsUnsetOnly(t *testing.T) {
	template := NewOperation("").
		WithClass("Dummy").
		WithPaginationEnabled(true).
		WithPaginationItemsPerPage(30).
		WithSecurity("'ROLE_USER' in roles").
		WithNormalizationContext(SerializationContext{Groups: []string{"read"}}).
		WithExtra("foo", "bar")

	op := GetCollection().
		WithName("custom").
		WithPaginationEnabled(false).
		WithExtra("foo", "baz").
		WithDefaults(template)

	assert.Equal(t, KindGetCollection, op.Kind())
	assert.Equal(t, "custom", op.Name())
	assert.Equal(t, "Dummy", op.Class())
	assert.False(t, *op.PaginationEnabled())
	assert.Equal(t, 30, *op.PaginationItemsPerPage())
	assert.Equal(t, "'ROLE_USER' in roles", op.Security())
	assert.Equal(t, []string{"read"}, op.NormalizationContext().Groups)

	foo, ok := op.Extra("foo")
	require.True(t, ok)
	assert.Equal(t, "baz", foo)
}

func TestOperation_Kinds(t *testing.T) {
	assert.True(t, GetCollection().IsCollection())
	assert.True(t, QueryCollection().IsCollection())
	assert.False(t, Get().IsCollection())
	assert.True(t, Mutation("create").IsGraphQL())
	assert.False(t, Post().IsGraphQL())
	assert.Equal(t, http.MethodPatch, KindPatch.Method())
	assert.Equal(t, "", KindQuery.Method())
	assert.False(t, Kind("head").Valid())
}

func TestOperation_JSON(t *testing.T) {
	op := Get().
		WithName("_api_Dummy_get").
		WithIdentifiers(Link{Parameter: "id", Class: "Dummy", Property: "id"}).
		WithOrder(OrderClause{Field: "name", Direction: "DESC"}).
		WithRead(false).
		WithPriority(3)

	data, err := json.Marshal(op)
	require.NoError(t, err)

	var decoded Operation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, op, decoded)
}
