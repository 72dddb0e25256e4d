package resolver

import (
	"testing"

	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseField returns the first field of the first operation of query and
// the fragments it defines
func parseField(t *testing.T, query string) (*ast.Field, map[string]ast.Definition) {
	t.Helper()
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	require.NoError(t, err)

	var field *ast.Field
	fragments := map[string]ast.Definition{}
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.OperationDefinition:
			if field == nil {
				field = d.SelectionSet.Selections[0].(*ast.Field)
			}
		case *ast.FragmentDefinition:
			fragments[d.Name.Value] = d
		}
	}
	require.NotNil(t, field)
	return field, fragments
}

func TestArgs_KeepQueryOrder(t *testing.T) {
	field, _ := parseField(t, `{ books(order: {title: "DESC", id: "ASC"}, first: 2) { title } }`)
	p := graphql.ResolveParams{
		Args: map[string]interface{}{
			"first": 2,
			"order": map[string]interface{}{"id": "ASC", "title": "DESC"},
			"after": "MQ==",
		},
		Info: graphql.ResolveInfo{FieldName: "books", FieldASTs: []*ast.Field{field}},
	}

	args := Args(p)
	assert.Equal(t, []string{"order", "first", "after"}, args.Keys())
	order, _ := args.Get("order")
	assert.Equal(t, []string{"title", "id"}, order.(*ordered.Map).Keys())
}

func TestArgs_Lists(t *testing.T) {
	field, _ := parseField(t, `{ books(order: [{title: "DESC", id: "ASC"}, {name: "ASC"}]) { title } }`)
	p := graphql.ResolveParams{
		Args: map[string]interface{}{
			"order": []interface{}{
				map[string]interface{}{"id": "ASC", "title": "DESC"},
				map[string]interface{}{"name": "ASC"},
			},
		},
		Info: graphql.ResolveInfo{FieldASTs: []*ast.Field{field}},
	}

	order, _ := Args(p).Get("order")
	list := order.([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, []string{"title", "id"}, list[0].(*ordered.Map).Keys())
	assert.Equal(t, []string{"name"}, list[1].(*ordered.Map).Keys())
}

func TestArgs_WithoutAST(t *testing.T) {
	args := Args(graphql.ResolveParams{Args: map[string]interface{}{"b": 1, "a": 2}})
	assert.Equal(t, []string{"a", "b"}, args.Keys())
}

func TestSelection(t *testing.T) {
	field, fragments := parseField(t, `
		{ book(id: "/books/1") { _id title ...authorFields __typename ... on Book { isbn } } }
		fragment authorFields on Book { author { name } }
	`)

	attrs := Selection(graphql.ResolveInfo{FieldASTs: []*ast.Field{field}, Fragments: fragments})
	assert.Equal(t, serializer.AttributeFilter{
		"id":     nil,
		"title":  nil,
		"isbn":   nil,
		"author": serializer.AttributeFilter{"name": nil},
	}, attrs)
}

func TestSelection_UnwrapsConnectionAndPage(t *testing.T) {
	field, _ := parseField(t, `{ books { totalCount edges { cursor node { id title } } pageInfo { hasNextPage } } }`)
	attrs := Selection(graphql.ResolveInfo{FieldASTs: []*ast.Field{field}})
	assert.Equal(t, serializer.AttributeFilter{"id": nil, "title": nil}, attrs)

	field, _ = parseField(t, `{ books { collection { title } paginationInfo { lastPage } } }`)
	attrs = Selection(graphql.ResolveInfo{FieldASTs: []*ast.Field{field}})
	assert.Equal(t, serializer.AttributeFilter{"title": nil}, attrs)

	field, _ = parseField(t, `{ books { totalCount } }`)
	attrs = Selection(graphql.ResolveInfo{FieldASTs: []*ast.Field{field}})
	assert.Empty(t, attrs)
}

func TestPayloadSelection(t *testing.T) {
	field, _ := parseField(t, `mutation { createBook(input: {title: "Dune"}) { book { _id title } clientMutationId } }`)
	attrs := PayloadSelection(graphql.ResolveInfo{FieldASTs: []*ast.Field{field}}, "book")
	assert.Equal(t, serializer.AttributeFilter{"id": nil, "title": nil}, attrs)
}
