package dataprovider

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/filter"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/orm/relationships"
	"github.com/Foxprodev/core/internal/pagination"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var postColumns = []string{"id", "title", "published_at", "author_id"}

func TestORMProviders_ImplementProviderInterfaces(t *testing.T) {
	e := newEnv(t)

	var item ItemDataProvider = NewItemDataProvider(e.db, e.schemas, e.hydrator, nil)
	var collection CollectionDataProvider = NewCollectionDataProvider(e.db, e.schemas, e.hydrator, nil)
	var subresource SubresourceDataProvider = newSubresourceProvider(e)

	chain := NewChainItemDataProvider(item)
	assert.NotNil(t, chain)
	assert.NotNil(t, NewChainCollectionDataProvider(collection))
	assert.NotNil(t, NewChainSubresourceDataProvider(subresource))
}

func TestHydrator(t *testing.T) {
	e := newEnv(t)

	item, err := e.hydrator.Hydrate("Post", map[string]interface{}{
		"id":           int64(1),
		"title":        []byte("Hello"),
		"published_at": "2024-01-02T03:04:05Z",
		"author_id":    int64(3),
	})
	require.NoError(t, err)

	post := item.(*Post)
	assert.Equal(t, 1, post.ID)
	assert.Equal(t, "Hello", post.Title)
	require.NotNil(t, post.PublishedAt)
	assert.True(t, post.PublishedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NotNil(t, post.Author, "a foreign key becomes a reference")
	assert.Equal(t, 3, post.Author.ID)

	item, err = e.hydrator.Hydrate("Post", map[string]interface{}{"id": int64(2), "author_id": nil})
	require.NoError(t, err)
	assert.Nil(t, item.(*Post).Author)
	assert.Nil(t, item.(*Post).PublishedAt)

	_, err = e.hydrator.Hydrate("Unknown", map[string]interface{}{})
	assert.Error(t, err)
}

func TestItemDataProvider_GetItem(t *testing.T) {
	e := newEnv(t)
	provider := NewItemDataProvider(e.db, e.schemas, e.hydrator, nil)

	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT posts.* FROM posts WHERE posts.id = $1 LIMIT $2")).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows(postColumns).AddRow(int64(1), "Hello", nil, int64(3)))

	item, err := provider.GetItem(context.Background(), "Post", ordered.FromPairs("id", 1), Context{Operation: resource.Get()})
	require.NoError(t, err)
	assert.Equal(t, "Hello", item.(*Post).Title)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestItemDataProvider_Missing(t *testing.T) {
	e := newEnv(t)
	provider := NewItemDataProvider(e.db, e.schemas, e.hydrator, nil)

	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT posts.* FROM posts WHERE posts.id = $1 LIMIT $2")).
		WithArgs(404, 1).
		WillReturnRows(sqlmock.NewRows(postColumns))

	item, err := provider.GetItem(context.Background(), "Post", ordered.FromPairs("id", 404), Context{Operation: resource.Get()})
	require.NoError(t, err)
	assert.Nil(t, item)

	_, err = provider.GetItem(context.Background(), "Unknown", ordered.FromPairs("id", 1), Context{})
	assert.True(t, apierr.IsConfiguration(err))
	assert.False(t, provider.Supports("Unknown", Context{}))
	assert.True(t, provider.Supports("Post", Context{}))
}

func TestItemDataProvider_EagerLoadsReadableLinks(t *testing.T) {
	e := newEnv(t)
	eager := NewEagerLoadingExtension(relationships.NewLoader(e.db, e.schemas), readableLinks("author"), nil)
	provider := NewItemDataProvider(e.db, e.schemas, e.hydrator, nil, eager)

	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT posts.* FROM posts WHERE posts.id = $1 LIMIT $2")).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows(postColumns).AddRow(int64(1), "Hello", nil, int64(3)))
	e.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "id" = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(3), "Kim"))

	item, err := provider.GetItem(context.Background(), "Post", ordered.FromPairs("id", 1), Context{Operation: resource.Get()})
	require.NoError(t, err)

	post := item.(*Post)
	require.NotNil(t, post.Author)
	assert.Equal(t, 3, post.Author.ID)
	assert.Equal(t, "Kim", post.Author.Name)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestCollectionDataProvider_Paginated(t *testing.T) {
	e := newEnv(t)

	locator := filter.NewLocator()
	search, err := filter.New(filter.TypeSearch, []resource.FilterProperty{{Name: "title", Strategy: filter.StrategyPartial}}, nil)
	require.NoError(t, err)
	locator.Register("post.search", search)

	provider := NewCollectionDataProvider(e.db, e.schemas, e.hydrator, nil,
		NewPaginationExtension(pagination.New(pagination.DefaultOptions())),
		NewOrderExtension(),
		NewFilterExtension(locator),
	)

	op := resource.GetCollection().WithFilters("post.search").WithPaginationItemsPerPage(2)
	dctx := Context{Operation: op, Filters: ordered.FromPairs("title", "ell", "page", "2")}

	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE (posts.title LIKE $1)")).
		WithArgs("%ell%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT posts.* FROM posts WHERE (posts.title LIKE $1) ORDER BY posts.id ASC LIMIT $2 OFFSET $3")).
		WithArgs("%ell%", 2, 2).
		WillReturnRows(sqlmock.NewRows(postColumns).AddRow(int64(3), "Hello again", nil, nil))

	result, err := provider.GetCollection(context.Background(), "Post", dctx)
	require.NoError(t, err)

	paginator, ok := result.(pagination.Paginator)
	require.True(t, ok)
	assert.Equal(t, 3, paginator.TotalItems())
	assert.Equal(t, 2, paginator.CurrentPage())
	assert.Equal(t, 2, paginator.LastPage())
	require.Len(t, paginator.Items(), 1)
	assert.Equal(t, "Hello again", paginator.Items()[0].(*Post).Title)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestCollectionDataProvider_DefaultOrderWithoutPagination(t *testing.T) {
	e := newEnv(t)
	provider := NewCollectionDataProvider(e.db, e.schemas, e.hydrator, nil,
		NewPaginationExtension(pagination.New(pagination.DefaultOptions())),
		NewOrderExtension(),
	)

	op := resource.GetCollection().
		WithPaginationEnabled(false).
		WithOrder(resource.OrderClause{Field: "title", Direction: "desc"}, resource.OrderClause{Field: "id"})

	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT posts.* FROM posts ORDER BY posts.title DESC, posts.id ASC")).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(int64(2), "b", nil, nil).
			AddRow(int64(1), "a", nil, nil))

	result, err := provider.GetCollection(context.Background(), "Post", Context{Operation: op})
	require.NoError(t, err)

	items, ok := result.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].(*Post).Title)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestCollectionDataProvider_GraphQLLastCounts(t *testing.T) {
	e := newEnv(t)
	provider := NewCollectionDataProvider(e.db, e.schemas, e.hydrator, nil,
		NewPaginationExtension(pagination.New(pagination.DefaultOptions())),
	)

	dctx := Context{Operation: resource.QueryCollection(), GraphQL: true, Filters: ordered.FromPairs("last", 2)}

	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT posts.* FROM posts LIMIT $1 OFFSET $2")).
		WithArgs(2, 8).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(int64(9), "i", nil, nil).
			AddRow(int64(10), "j", nil, nil))

	result, err := provider.GetCollection(context.Background(), "Post", dctx)
	require.NoError(t, err)

	paginator := result.(pagination.Paginator)
	assert.Equal(t, 8, paginator.Offset())
	assert.False(t, paginator.HasNextPage())
	assert.True(t, paginator.HasPreviousPage())
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestCollectionDataProvider_InvalidBounds(t *testing.T) {
	e := newEnv(t)
	provider := NewCollectionDataProvider(e.db, e.schemas, e.hydrator, nil,
		NewPaginationExtension(pagination.New(pagination.DefaultOptions())),
	)

	op := resource.GetCollection().WithPaginationItemsPerPage(0)
	_, err := provider.GetCollection(context.Background(), "Post", Context{Operation: op, Filters: ordered.FromPairs("page", "2")})
	assert.True(t, apierr.IsInvalidArgument(err))
	assert.NoError(t, e.mock.ExpectationsWereMet(), "no query runs on invalid bounds")
}

type spyExtension struct {
	name     string
	priority int
	calls    *[]string
}

func (s *spyExtension) Priority() int { return s.priority }

func (s *spyExtension) ApplyToCollection(context.Context, *query.QueryBuilder, string, Context) error {
	*s.calls = append(*s.calls, s.name)
	return nil
}

type spyResultExtension struct {
	spyExtension
	supports bool
}

func (s *spyResultExtension) SupportsResult(string, Context) bool { return s.supports }

func (s *spyResultExtension) GetResult(context.Context, *query.QueryBuilder, string, Context, pagination.Hydrator) (interface{}, error) {
	*s.calls = append(*s.calls, s.name+":result")
	return s.name, nil
}

type mockItemProvider struct {
	mock.Mock
}

func (m *mockItemProvider) GetItem(ctx context.Context, resourceClass string, identifiers *ordered.Map, dctx Context) (interface{}, error) {
	args := m.Called(ctx, resourceClass, identifiers, dctx)
	return args.Get(0), args.Error(1)
}

func TestSortCollectionExtensions(t *testing.T) {
	var calls []string
	exts := []QueryCollectionExtension{
		&spyExtension{name: "low", priority: -10, calls: &calls},
		&spyExtension{name: "first-zero", calls: &calls},
		&spyExtension{name: "high", priority: 10, calls: &calls},
		&spyExtension{name: "second-zero", calls: &calls},
	}

	var names []string
	for _, ext := range sortCollectionExtensions(exts) {
		names = append(names, ext.(*spyExtension).name)
	}
	assert.Equal(t, []string{"high", "first-zero", "second-zero", "low"}, names)
}

func TestApplyCollection_FirstResultExtensionWins(t *testing.T) {
	e := newEnv(t)
	var calls []string
	exts := sortCollectionExtensions([]QueryCollectionExtension{
		&spyExtension{name: "mutator", priority: 10, calls: &calls},
		&spyResultExtension{spyExtension: spyExtension{name: "owner", calls: &calls}, supports: true},
		&spyResultExtension{spyExtension: spyExtension{name: "late", priority: -10, calls: &calls}, supports: true},
	})

	sch, _ := e.schemas.Get("Post")
	provider := NewCollectionDataProvider(e.db, e.schemas, e.hydrator, nil)
	result, ok, err := applyCollection(context.Background(), exts, provider.newQuery(sch), "Post", Context{}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "owner", result)
	assert.Equal(t, []string{"mutator", "owner", "owner:result"}, calls)
}

func TestChainItemDataProvider(t *testing.T) {
	declining := new(mockItemProvider)
	declining.On("GetItem", mock.Anything, "Post", mock.Anything, mock.Anything).
		Return(nil, apierr.ErrResourceClassNotSupported)

	serving := new(mockItemProvider)
	serving.On("GetItem", mock.Anything, "Post", mock.Anything, mock.Anything).
		Return(&Post{ID: 1}, nil)

	chain := NewChainItemDataProvider(declining, serving)
	item, err := chain.GetItem(context.Background(), "Post", ordered.FromPairs("id", 1), Context{})
	require.NoError(t, err)
	assert.Equal(t, &Post{ID: 1}, item)
	declining.AssertExpectations(t)
	serving.AssertExpectations(t)

	empty := NewChainItemDataProvider(declining)
	item, err = empty.GetItem(context.Background(), "Post", nil, Context{})
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestChainCollectionDataProvider_SkipsUnsupported(t *testing.T) {
	e := newEnv(t)
	provider := NewCollectionDataProvider(e.db, e.schemas, e.hydrator, nil)

	chain := NewChainCollectionDataProvider(provider)
	items, err := chain.GetCollection(context.Background(), "Unmapped", Context{Operation: resource.GetCollection()})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{}, items)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}
