package migrate

import (
	"testing"
	"time"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/database"
	"github.com/Foxprodev/core/internal/orm/schema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

type Book struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Price       float64    `json:"price"`
	PublishedAt *time.Time `json:"publishedAt"`
	Author      *Author    `json:"author"`
	Tags        []Tag      `json:"tags" rel:"has_many_through"`
}

type Chapter struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Book  Book   `json:"book"`
}

func newSchemas(t *testing.T) *schema.Registry {
	t.Helper()
	classes := class.NewRegistry()
	require.NoError(t, classes.Register("Chapter", Chapter{}))
	require.NoError(t, classes.Register("Book", Book{}))
	require.NoError(t, classes.Register("Author", Author{}))
	require.NoError(t, classes.Register("Tag", Tag{}))
	schemas, err := schema.FromClasses(classes)
	require.NoError(t, err)
	return schemas
}

func get(t *testing.T, schemas *schema.Registry, name string) *schema.ResourceSchema {
	t.Helper()
	sch, err := schemas.MustGet(name)
	require.NoError(t, err)
	return sch
}

func TestCreateTable_Postgres(t *testing.T) {
	schemas := newSchemas(t)
	g := NewGenerator(database.Postgres)

	stmt, err := g.CreateTable(get(t, schemas, "Book"), schemas)
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "books" (
  "id" SERIAL PRIMARY KEY,
  "title" VARCHAR(255) NOT NULL,
  "price" DOUBLE PRECISION NOT NULL,
  "published_at" TIMESTAMP WITH TIME ZONE,
  "author_id" INTEGER REFERENCES "authors" ("id") ON DELETE SET NULL
);`, stmt)

	stmt, err = g.CreateTable(get(t, schemas, "Tag"), schemas)
	require.NoError(t, err)
	assert.Contains(t, stmt, `"id" UUID PRIMARY KEY`)

	stmt, err = g.CreateTable(get(t, schemas, "Chapter"), schemas)
	require.NoError(t, err)
	assert.Contains(t, stmt, `"book_id" INTEGER NOT NULL REFERENCES "books" ("id") ON DELETE CASCADE`)
}

func TestCreateTable_SQLite(t *testing.T) {
	schemas := newSchemas(t)
	stmt, err := NewGenerator(database.SQLite).CreateTable(get(t, schemas, "Book"), schemas)
	require.NoError(t, err)

	assert.Contains(t, stmt, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`)
	assert.Contains(t, stmt, `"price" REAL NOT NULL`)
	assert.Contains(t, stmt, `"published_at" TIMESTAMP,`)
}

func TestCreateJoinTable(t *testing.T) {
	schemas := newSchemas(t)
	book := get(t, schemas, "Book")

	stmt, err := NewGenerator(database.Postgres).CreateJoinTable(book, book.Relationships["tags"], schemas)
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "book_tags" (
  "book_id" INTEGER NOT NULL REFERENCES "books" ("id") ON DELETE CASCADE,
  "tag_id" UUID NOT NULL REFERENCES "tags" ("id") ON DELETE CASCADE,
  PRIMARY KEY ("book_id", "tag_id")
);`, stmt)
}

func TestGenerate_Order(t *testing.T) {
	m, err := NewGenerator(database.Postgres).Generate(20240301, "create_schema", newSchemas(t))
	require.NoError(t, err)

	assert.Equal(t, int64(20240301), m.Version)
	assert.Equal(t, "create_schema", m.Name)

	var tables []string
	for _, stmt := range SplitStatements(m.Up) {
		tables = append(tables, tableOf(stmt))
	}
	assert.Equal(t, []string{"authors", "books", "chapters", "tags", "book_tags"}, tables)

	assert.Equal(t, `DROP TABLE IF EXISTS "book_tags";
DROP TABLE IF EXISTS "tags";
DROP TABLE IF EXISTS "chapters";
DROP TABLE IF EXISTS "books";
DROP TABLE IF EXISTS "authors";`, m.Down)
}

func TestGenerate_Cycle(t *testing.T) {
	schemas := schema.NewRegistry()
	a := schema.NewResourceSchema("A")
	a.AddField(&schema.Field{Name: "id", Type: schema.TypeInt, Primary: true})
	a.AddRelationship(&schema.Relationship{Type: schema.RelationshipBelongsTo, FieldName: "b", TargetResource: "B"})
	b := schema.NewResourceSchema("B")
	b.AddField(&schema.Field{Name: "id", Type: schema.TypeInt, Primary: true})
	b.AddRelationship(&schema.Relationship{Type: schema.RelationshipBelongsTo, FieldName: "a", TargetResource: "A"})
	require.NoError(t, schemas.Register(a))
	require.NoError(t, schemas.Register(b))

	_, err := NewGenerator(database.Postgres).Generate(1, "cycle", schemas)
	assert.ErrorContains(t, err, "circular belongs_to relationship")
}

func TestSplitStatements(t *testing.T) {
	script := "CREATE TABLE a (\n  id INT\n);\n\nCREATE TABLE b (id INT);\nDROP TABLE c"
	assert.Equal(t, []string{
		"CREATE TABLE a (\n  id INT\n)",
		"CREATE TABLE b (id INT)",
		"DROP TABLE c",
	}, SplitStatements(script))
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"books"`, QuoteIdentifier("books"))
	assert.Equal(t, `"bad""name"`, QuoteIdentifier(`bad"name`))
}

func tableOf(stmt string) string {
	const prefix = `CREATE TABLE IF NOT EXISTS "`
	rest := stmt[len(prefix):]
	for i, r := range rest {
		if r == '"' {
			return rest[:i]
		}
	}
	return rest
}
