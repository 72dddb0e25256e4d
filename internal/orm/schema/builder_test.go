package schema

import (
	"testing"
	"time"

	"github.com/Foxprodev/core/internal/class"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOwner struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type testTag struct {
	ID    uuid.UUID `json:"id" db:"id,primary"`
	Label string    `json:"label"`
}

type testArticle struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Views       int64        `json:"views"`
	Rating      *float64     `json:"rating"`
	Published   bool         `json:"published"`
	PublishedAt *time.Time   `json:"publishedAt"`
	Body        string       `json:"body" db:"content,type=text"`
	Internal    string       `json:"internal" db:"-"`
	Owner       *testOwner   `json:"owner"`
	Reviewer    *testOwner   `json:"reviewer" rel:"belongs_to,fk=reviewed_by"`
	Comments    []*testOwner `json:"comments" rel:"has_many,fk=article_id,order=id DESC"`
	Tags        []testTag    `json:"tags" rel:"has_many_through"`
}

func (testArticle) TableName() string { return "articles_v2" }

func newTestClasses(t *testing.T) *class.Registry {
	t.Helper()
	classes := class.NewRegistry()
	require.NoError(t, classes.Register("Owner", testOwner{}))
	require.NoError(t, classes.Register("Tag", testTag{}))
	require.NoError(t, classes.Register("Article", testArticle{}))
	return classes
}

func TestBuilder_Fields(t *testing.T) {
	s, err := NewBuilder(newTestClasses(t)).Build("Article")
	require.NoError(t, err)

	assert.Equal(t, "articles_v2", s.TableName)
	assert.Equal(t, "id", s.PrimaryKey)
	assert.Equal(t, []string{"id", "title", "views", "rating", "published", "publishedAt", "body"}, s.FieldOrder)

	assert.Equal(t, TypeBigInt, s.Fields["views"].Type)
	assert.Equal(t, TypeFloat, s.Fields["rating"].Type)
	assert.True(t, s.Fields["rating"].Nullable)
	assert.Equal(t, TypeTimestamp, s.Fields["publishedAt"].Type)
	assert.Equal(t, "published_at", s.Fields["publishedAt"].Column)
	assert.Equal(t, "content", s.Fields["body"].Column)
	assert.Equal(t, TypeText, s.Fields["body"].Type)
	assert.False(t, s.HasField("internal"))
}

func TestBuilder_Relationships(t *testing.T) {
	s, err := NewBuilder(newTestClasses(t)).Build("Article")
	require.NoError(t, err)

	owner := s.Relationships["owner"]
	require.NotNil(t, owner)
	assert.Equal(t, RelationshipBelongsTo, owner.Type)
	assert.Equal(t, "Owner", owner.TargetResource)
	assert.Equal(t, "owner_id", owner.ForeignKey)
	assert.True(t, owner.Nullable)

	assert.Equal(t, "reviewed_by", s.Relationships["reviewer"].ForeignKey)

	comments := s.Relationships["comments"]
	assert.Equal(t, RelationshipHasMany, comments.Type)
	assert.Equal(t, "article_id", comments.ForeignKey)
	assert.Equal(t, "id DESC", comments.OrderBy)

	tags := s.Relationships["tags"]
	assert.Equal(t, RelationshipHasManyThrough, tags.Type)
	assert.Equal(t, "article_tags", tags.JoinTable)
	assert.Equal(t, "article_id", tags.ForeignKey)
	assert.Equal(t, "tag_id", tags.AssociationKey)

	col, ok := s.Column("owner")
	assert.True(t, ok)
	assert.Equal(t, "owner_id", col)
	_, ok = s.Column("comments")
	assert.False(t, ok)

	rel, ok := s.RelationshipByForeignKey("reviewed_by")
	require.True(t, ok)
	assert.Equal(t, "reviewer", rel.FieldName)
}

func TestBuilder_PrimaryKey(t *testing.T) {
	s, err := NewBuilder(newTestClasses(t)).Build("Tag")
	require.NoError(t, err)

	pk, err := s.GetPrimaryKey()
	require.NoError(t, err)
	assert.Equal(t, "id", pk.Column)
	assert.Equal(t, TypeUUID, pk.Type)
	assert.Equal(t, "tags", s.TableName)
}

func TestBuilder_InvalidTags(t *testing.T) {
	type badDB struct {
		ID int `db:"id,unique"`
	}
	type badRel struct {
		ID    int    `json:"id"`
		Owner string `json:"owner" rel:"belongs_to"`
	}

	classes := class.NewRegistry()
	require.NoError(t, classes.Register("BadDB", badDB{}))
	require.NoError(t, classes.Register("BadRel", badRel{}))

	_, err := NewBuilder(classes).Build("BadDB")
	assert.ErrorContains(t, err, `unknown db tag option "unique"`)

	_, err = NewBuilder(classes).Build("BadRel")
	assert.ErrorContains(t, err, "relationship target is not a resource class")

	_, err = NewBuilder(classes).Build("Missing")
	assert.Error(t, err)
}

func TestToTableName(t *testing.T) {
	assert.Equal(t, "dummies", ToTableName("Dummy"))
	assert.Equal(t, "related_dummies", ToTableName("App.Entity.RelatedDummy"))
	assert.Equal(t, "people", ToTableName("Person"))
}
