package kernel

import (
	"bytes"
	"context"
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/cli/config"
	"github.com/Foxprodev/core/internal/database"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/migrate"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Author struct {
	ID   int    `json:"id" api:"identifier"`
	Name string `json:"name"`
}

type Book struct {
	ID     int     `json:"id" api:"identifier"`
	Title  string  `json:"title" filter:"search"`
	Price  float64 `json:"price"`
	Author *Author `json:"author"`
}

func classes(t *testing.T) *class.Registry {
	t.Helper()
	registry := class.NewRegistry()
	require.NoError(t, registry.Register("Author", Author{}))
	require.NoError(t, registry.Register("Book", Book{}))
	return registry
}

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Driver: "sqlite3", URL: t.TempDir() + "/kernel.db"}
	return cfg
}

func TestNew_WithoutDatabase(t *testing.T) {
	k, err := New(context.Background(), Options{Classes: classes(t), Metrics: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer k.Close()

	assert.Nil(t, k.DB)
	assert.Nil(t, k.Persister)
	assert.Equal(t, database.Postgres, k.Dialect)
	assert.Equal(t, []string{"csv", "json", "jsonapi", "jsonhal", "xml", "yaml"}, k.Serializer.Formats())

	item, err := k.Items.GetItem(context.Background(), "Book", ordered.FromPairs("id", 1), dataprovider.Context{Operation: resource.Get()})
	assert.NoError(t, err)
	assert.Nil(t, item, "no provider serves items without a database")

	s, err := k.GraphQLSchema(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s.Type("Book"))
	assert.Contains(t, s.MutationType().Fields(), "createBook")

	m, err := k.SchemaMigration(1, "init")
	require.NoError(t, err)
	assert.Contains(t, m.Up, `CREATE TABLE IF NOT EXISTS "books"`)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.EqualError(t, err, "kernel: no class registry given")

	cfg := config.Default()
	cfg.Serializer.NameConverter = "kebab"
	_, err = New(context.Background(), Options{Config: cfg, Classes: classes(t)})
	assert.True(t, apierr.IsConfiguration(err))

	cfg = config.Default()
	cfg.Cache.Adapter = "memcached"
	_, err = New(context.Background(), Options{Config: cfg, Classes: classes(t)})
	assert.Error(t, err)
}

func TestNew_GraphQLDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.GraphQL.Enabled = false
	k, err := New(context.Background(), Options{Config: cfg, Classes: classes(t)})
	require.NoError(t, err)
	defer k.Close()

	_, err = k.GraphQLSchema(context.Background())
	assert.EqualError(t, err, "graphql is disabled")
}

func TestNew_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	k, err := New(ctx, Options{Config: sqliteConfig(t), Classes: classes(t)})
	require.NoError(t, err)
	defer k.Close()

	require.NotNil(t, k.DB)
	require.NotNil(t, k.Persister)
	assert.Equal(t, database.SQLite, k.Dialect)

	m, err := k.SchemaMigration(1, "init")
	require.NoError(t, err)
	applied, err := migrate.NewRunner(k.DB, k.Logger).Up(ctx, []*migrate.Migration{m})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	author, err := k.Persister.Persist(ctx, &Author{Name: "Frank Herbert"})
	require.NoError(t, err)
	require.NotZero(t, author.(*Author).ID)

	saved, err := k.Persister.Persist(ctx, &Book{Title: "Dune", Price: 9.5, Author: author.(*Author)})
	require.NoError(t, err)
	id := saved.(*Book).ID

	item, err := k.Items.GetItem(ctx, "Book", ordered.FromPairs("id", id), dataprovider.Context{Operation: resource.Get()})
	require.NoError(t, err)
	book := item.(*Book)
	assert.Equal(t, "Dune", book.Title)
	require.NotNil(t, book.Author)
	assert.Equal(t, author.(*Author).ID, book.Author.ID)

	var out bytes.Buffer
	require.NoError(t, k.Serializer.Serialize(ctx, &out, book, "jsonhal", nil))
	assert.Contains(t, out.String(), `"_links"`)
	assert.Contains(t, out.String(), `"title":"Dune"`)
}

func TestClose_Idempotent(t *testing.T) {
	k, err := New(context.Background(), Options{Config: sqliteConfig(t), Classes: classes(t)})
	require.NoError(t, err)
	assert.NoError(t, k.Close())
	assert.NoError(t, k.Close())
}
