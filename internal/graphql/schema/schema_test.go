package schema

import (
	"context"
	"testing"

	"github.com/Foxprodev/core/internal/filter"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_RootFields(t *testing.T) {
	s := build(t, options{})

	queries := s.QueryType().Fields()
	assert.ElementsMatch(t, []string{"node", "book", "books", "author", "authors"}, keys(queries))
	assert.Equal(t, "Book", queries["book"].Type.String())
	assert.Equal(t, map[string]string{"id": "ID!"}, args(queries["book"]))
	assert.Equal(t, "Node", queries["node"].Type.String())

	mutations := s.MutationType().Fields()
	assert.ElementsMatch(t, []string{
		"createBook", "updateBook", "deleteBook",
		"createAuthor", "updateAuthor", "deleteAuthor",
	}, keys(mutations))
	assert.Equal(t, "createBookPayload", mutations["createBook"].Type.String())
	assert.Equal(t, map[string]string{"input": "createBookInput!"}, args(mutations["createBook"]))
	assert.Equal(t, "Creates a Book.", mutations["createBook"].Description)

	assert.Nil(t, s.SubscriptionType())
}

func TestBuild_ResourceType(t *testing.T) {
	s := build(t, options{})

	book := object(t, s, "Book")
	assert.Equal(t, map[string]string{
		"id":          "ID!",
		"_id":         "Int!",
		"title":       "String!",
		"price":       "Float!",
		"publishedAt": "String",
		"tags":        "[String]",
		"meta":        "Iterable",
		"author":      "Author",
		"publisher":   "Publisher",
	}, fieldTypes(book.Fields()))
	require.Len(t, book.Interfaces(), 1)
	assert.Equal(t, "Node", book.Interfaces()[0].Name())

	author := object(t, s, "Author")
	assert.Equal(t, "BookConnection", author.Fields()["books"].Type.String())
	assert.Equal(t, map[string]string{
		"first":      "Int",
		"last":       "Int",
		"before":     "String",
		"after":      "String",
		"title":      "String",
		"title_list": "[String]",
		"order":      "[BookFilter_order]",
		"price":      "[BookFilter_price]",
	}, args(author.Fields()["books"]))
}

func TestBuild_CursorConnection(t *testing.T) {
	s := build(t, options{})

	assert.Equal(t, "BookConnection", s.QueryType().Fields()["books"].Type.String())
	assert.Equal(t, map[string]string{
		"edges":      "[BookEdge]",
		"pageInfo":   "BookPageInfo!",
		"totalCount": "Int!",
	}, fieldTypes(object(t, s, "BookConnection").Fields()))
	assert.Equal(t, map[string]string{
		"node":   "Book",
		"cursor": "String!",
	}, fieldTypes(object(t, s, "BookEdge").Fields()))
	assert.Equal(t, map[string]string{
		"endCursor":       "String",
		"startCursor":     "String",
		"hasNextPage":     "Boolean!",
		"hasPreviousPage": "Boolean!",
	}, fieldTypes(object(t, s, "BookPageInfo").Fields()))
}

func TestBuild_PageBasedPagination(t *testing.T) {
	s := build(t, options{paging: "page"})

	books := s.QueryType().Fields()["books"]
	assert.Equal(t, "BookPageConnection", books.Type.String())
	assert.Contains(t, args(books), "page")
	assert.NotContains(t, args(books), "first")
	assert.Equal(t, map[string]string{
		"collection":     "[Book]",
		"paginationInfo": "BookPaginationInfo!",
	}, fieldTypes(object(t, s, "BookPageConnection").Fields()))
	assert.Equal(t, map[string]string{
		"itemsPerPage": "Int!",
		"lastPage":     "Int!",
		"totalCount":   "Int!",
		"hasNextPage":  "Boolean!",
	}, fieldTypes(object(t, s, "BookPaginationInfo").Fields()))
}

func TestBuild_FilterTypesAreShared(t *testing.T) {
	s := build(t, options{})

	order := func(f *graphql.FieldDefinition) graphql.Input {
		for _, a := range f.Args {
			if a.Name() == "order" {
				return a.Type
			}
		}
		return nil
	}
	fromQuery := order(s.QueryType().Fields()["books"])
	require.NotNil(t, fromQuery)
	assert.Same(t, fromQuery, order(object(t, s, "Author").Fields()["books"]))

	assert.Equal(t, map[string]string{"title": "String"}, inputTypes(input(t, s, "BookFilter_order").Fields()))
	assert.Equal(t, map[string]string{
		"between": "String",
		"gt":      "String",
		"gte":     "String",
		"lt":      "String",
		"lte":     "String",
	}, inputTypes(input(t, s, "BookFilter_price").Fields()))
}

func TestBuild_MutationTypes(t *testing.T) {
	s := build(t, options{})

	assert.Equal(t, map[string]string{
		"clientMutationId": "String",
		"title":            "String",
		"price":            "Float",
		"publishedAt":      "String",
		"tags":             "[String]",
		"meta":             "Iterable",
		"author":           "String",
		"publisher":        "String",
	}, inputTypes(input(t, s, "createBookInput").Fields()))

	update := inputTypes(input(t, s, "updateBookInput").Fields())
	assert.Equal(t, "ID!", update["id"])
	assert.Equal(t, "String", update["title"])

	assert.Equal(t, map[string]string{
		"id":               "ID!",
		"clientMutationId": "String",
	}, inputTypes(input(t, s, "deleteBookInput").Fields()))

	assert.Equal(t, map[string]string{
		"book":             "Book",
		"clientMutationId": "String",
	}, fieldTypes(object(t, s, "createBookPayload").Fields()))
	assert.Equal(t, map[string]string{
		"id":               "ID",
		"clientMutationId": "String",
	}, fieldTypes(object(t, s, "deleteBookPayload").Fields()))
}

func TestBuild_Subscription(t *testing.T) {
	b := newBuilder(t, options{})
	op := resource.Subscription().WithName(resource.GraphQLSubscription).WithClass("Book").WithShortName("Book")

	fields := b.fields.SubscriptionFields(context.Background(), "Book", "Book", op)
	require.Contains(t, fields, "updateBookSubscribe")
	field := fields["updateBookSubscribe"]
	assert.Equal(t, "updateBookSubscriptionPayload", field.Type.String())
	assert.Equal(t, "updateBookSubscriptionInput!", field.Args["input"].Type.String())
}

func TestBuild_MaxDepth(t *testing.T) {
	s := build(t, options{})
	assert.Contains(t, object(t, s, "Publisher").Fields(), "books")

	s = build(t, options{maxDepth: 1})
	publisher := object(t, s, "Publisher")
	assert.Equal(t, []string{"_id", "id", "name"}, sortedKeys(publisher.Fields()))
	assert.Contains(t, object(t, s, "Author").Fields(), "books", "root types start at depth 0")
}

func TestBuild_Executes(t *testing.T) {
	s := build(t, options{})
	result := graphql.Do(graphql.Params{
		Schema:        s,
		RequestString: `{ __type(name: "Book") { name interfaces { name } } }`,
	})
	require.Empty(t, result.Errors)
	assert.Equal(t, map[string]interface{}{
		"__type": map[string]interface{}{
			"name":       "Book",
			"interfaces": []interface{}{map[string]interface{}{"name": "Node"}},
		},
	}, result.Data)
}

// nestedFilter describes parameters on related properties
type nestedFilter struct{}

func (nestedFilter) Apply(*query.QueryBuilder, string, resource.Operation, *ordered.Map) error {
	return nil
}

func (nestedFilter) Description(string) []filter.Parameter {
	return []filter.Parameter{
		{Key: "author.name", Property: "author.name", Type: "string"},
		{Key: "order[author.name]", Property: "author.name", Type: "string"},
		{Key: "exists[publishedAt]", Property: "publishedAt", Type: "bool"},
		{Key: "isbn", Property: "isbn", Type: "string", Required: true},
	}
}

func TestFilterArgs_Nesting(t *testing.T) {
	b := newBuilder(t, options{})
	b.fields.filters.Register("nested", nestedFilter{})

	fieldArgs, err := b.fields.FilterArgs("Book", "Book", resource.QueryCollection().WithFilters("nested"))
	require.NoError(t, err)

	got := map[string]string{}
	for name, a := range fieldArgs {
		got[name] = a.Type.String()
	}
	assert.Equal(t, map[string]string{
		"author_name": "String",
		"order":       "[BookFilter_order]",
		"exists":      "[BookFilter_exists]",
		"isbn":        "String!",
	}, got)

	order := fieldArgs["order"].Type.(*graphql.List).OfType.(*graphql.InputObject)
	assert.Equal(t, map[string]string{"author_name": "String"}, inputTypes(order.Fields()))
	exists := fieldArgs["exists"].Type.(*graphql.List).OfType.(*graphql.InputObject)
	assert.Equal(t, map[string]string{"publishedAt": "Boolean"}, inputTypes(exists.Fields()))
	assert.True(t, b.Types().Has("BookFilter_exists"))
}

func TestFilterArgs_UnknownFilter(t *testing.T) {
	b := newBuilder(t, options{})
	_, err := b.fields.FilterArgs("Book", "Book", resource.QueryCollection().WithFilters("missing"))
	assert.Error(t, err)
}

func TestSplitFilterKey(t *testing.T) {
	assert.Equal(t, []string{"title"}, splitFilterKey("title"))
	assert.Equal(t, []string{"order", "title"}, splitFilterKey("order[title]"))
	assert.Equal(t, []string{"order", "author.name"}, splitFilterKey("order[author.name]"))
	assert.Equal(t, []string{"a", "b", "c"}, splitFilterKey("a[b][c]"))
	assert.Equal(t, "order_author__name", filterTypeName("order[author.name]"))
}

func TestOperationPrefix(t *testing.T) {
	assert.Equal(t, "", operationPrefix(resource.Query().WithName(resource.GraphQLItemQuery)))
	assert.Equal(t, "", operationPrefix(resource.QueryCollection().WithName(resource.GraphQLCollectionQuery)))
	assert.Equal(t, "update", operationPrefix(resource.Subscription().WithName(resource.GraphQLSubscription)))
	assert.Equal(t, "create", operationPrefix(resource.Mutation(resource.GraphQLCreate)))
	assert.Equal(t, "markAsRead", operationPrefix(resource.Mutation("mark_as_read")))
}

func keys(fields graphql.FieldDefinitionMap) []string {
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	return out
}

func sortedKeys(fields graphql.FieldDefinitionMap) []string {
	out := keys(fields)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
