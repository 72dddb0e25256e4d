package dataprovider

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/orm/schema"
	"github.com/stretchr/testify/require"
)

type User struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Posts []*Post `json:"posts" rel:"has_many,fk=author_id"`
}

type Post struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	PublishedAt *time.Time `json:"publishedAt"`
	Author      *User      `json:"author" rel:"belongs_to,fk=author_id"`
	Comments    []*Comment `json:"comments"`
	Tags        []*Tag     `json:"tags" rel:"has_many_through"`
}

type Comment struct {
	ID   int    `json:"id"`
	Body string `json:"body"`
	Post *Post  `json:"post"`
}

type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type env struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	classes  *class.Registry
	schemas  *schema.Registry
	hydrator *Hydrator
}

func newEnv(t *testing.T) *env {
	t.Helper()

	classes := class.NewRegistry()
	require.NoError(t, classes.Register("User", User{}))
	require.NoError(t, classes.Register("Post", Post{}))
	require.NoError(t, classes.Register("Comment", Comment{}))
	require.NoError(t, classes.Register("Tag", Tag{}))

	schemas, err := schema.FromClasses(classes)
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &env{
		db:       db,
		mock:     mock,
		classes:  classes,
		schemas:  schemas,
		hydrator: NewHydrator(classes, schemas),
	}
}

// readableLinks marks the given properties as embedded relations
func readableLinks(names ...string) property.Factory {
	return property.FactoryFunc(func(_ context.Context, _, prop string, _ property.Options) (property.Metadata, error) {
		for _, name := range names {
			if name == prop {
				return property.New().WithReadable(true).WithReadableLink(true), nil
			}
		}
		return property.New(), nil
	})
}
