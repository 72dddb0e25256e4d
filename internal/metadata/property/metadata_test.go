package property

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_WithIsCopyOnWrite(t *testing.T) {
	base := New().WithReadable(true).WithGroups("read")
	changed := base.WithReadable(false).WithGroups("write")

	assert.True(t, base.IsReadable())
	assert.Equal(t, []string{"read"}, base.Groups())
	assert.False(t, changed.IsReadable())
	assert.Equal(t, []string{"write"}, changed.Groups())

	withExtra := base.WithExtra("a", 1)
	_, ok := base.Extra("a")
	assert.False(t, ok)
	v, ok := withExtra.Extra("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestMetadata_MergeKeepsSetFacets(t *testing.T) {
	m := New().WithReadable(false).WithDescription("mine")
	other := New().
		WithReadable(true).
		WithWritable(true).
		WithDescription("theirs").
		WithType(NewType(BuiltinInt, false, ""))

	merged := m.Merge(other)
	assert.False(t, merged.IsReadable())
	assert.True(t, merged.IsWritable())
	assert.Equal(t, "mine", merged.Description())
	assert.Equal(t, BuiltinInt, merged.Type().Builtin)
}

func TestMetadata_JSON(t *testing.T) {
	md := New().
		WithType(NewCollectionType(false, nil, &Type{Builtin: BuiltinObject, Class: "Related"})).
		WithReadable(true).
		WithWritable(false).
		WithSecurity("'ROLE_ADMIN' in roles")

	data, err := json.Marshal(md)
	require.NoError(t, err)

	var decoded Metadata
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, md, decoded)
	require.NotNil(t, decoded.Writable())
	assert.False(t, *decoded.Writable())
	assert.Nil(t, decoded.Identifier())
}

func TestMetadata_JSONKeepsValueTypes(t *testing.T) {
	tests := []struct {
		name string
		md   Metadata
	}{
		{"untyped int", New().WithDefault(3).WithExample(int64(7))},
		{"untyped float", New().WithDefault(2.5).WithExample(3.0)},
		{"int property", New().WithType(NewType(BuiltinInt, false, "")).WithDefault(3)},
		{"float property", New().WithType(NewType(BuiltinFloat, false, "")).WithDefault(3)},
		{"list", New().WithDefault([]string{"a", "b"}).WithExample([]int{1, 2})},
		{"map", New().WithExample(map[string]interface{}{"stock": 4, "ratio": 0.5})},
		{"extra", New().WithExtra("weight", 2).WithExtra("push", true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.md)
			require.NoError(t, err)

			var decoded Metadata
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.md, decoded)
		})
	}

	assert.Equal(t, 3, New().WithDefault(3).Default())
	assert.Equal(t, 3.0, New().WithType(NewType(BuiltinFloat, false, "")).WithDefault(3).Default())
	assert.Equal(t, 3.0, New().WithDefault(3).WithType(NewType(BuiltinFloat, false, "")).Default())
}

func TestNameCollection(t *testing.T) {
	c := NewNameCollection("id", "name", "id")
	assert.Equal(t, []string{"id", "name"}, c.Names())
	assert.True(t, c.Contains("name"))
	assert.Equal(t, 2, c.Len())

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `["id","name"]`, string(data))

	var decoded NameCollection
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, c, decoded)
}

func TestParseType(t *testing.T) {
	assert.Equal(t, NewType(BuiltinInt, false, ""), ParseType("int"))
	assert.Equal(t, NewType(BuiltinString, true, ""), ParseType("?string"))
	assert.Equal(t, NewType(BuiltinObject, false, "Dummy"), ParseType("Dummy"))

	coll := ParseType("Dummy[]")
	assert.True(t, coll.IsCollection())
	assert.Equal(t, "Dummy", coll.ClassName())
	assert.Equal(t, "Dummy[]", coll.String())
}

func TestParseTag(t *testing.T) {
	md := ParseTag(`identifier,writable=false,security=has(object.owner) && object.owner == user,groups=a|b,default="x",description='A, B'`)

	assert.True(t, md.IsIdentifier())
	require.NotNil(t, md.Writable())
	assert.False(t, md.IsWritable())
	assert.Nil(t, md.Readable())
	assert.Equal(t, "has(object.owner) && object.owner == user", md.Security())
	assert.Equal(t, []string{"a", "b"}, md.Groups())
	assert.Equal(t, "x", md.Default())
	assert.Equal(t, "A, B", md.Description())
}
