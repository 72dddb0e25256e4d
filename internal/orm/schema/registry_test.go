package schema

import (
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get schema", func(t *testing.T) {
		registry := NewRegistry()

		schema := NewResourceSchema("Post")
		schema.AddField(&Field{Name: "id", Type: TypeUUID, Primary: true})

		require.NoError(t, registry.Register(schema))

		retrieved, exists := registry.Get("Post")
		require.True(t, exists)
		assert.Equal(t, "Post", retrieved.Name)
		assert.Equal(t, "posts", retrieved.TableName)
		assert.Equal(t, 1, registry.Count())
		assert.True(t, registry.Exists("Post"))
	})

	t.Run("duplicate registration", func(t *testing.T) {
		registry := NewRegistry()

		schema := NewResourceSchema("Post")
		require.NoError(t, registry.Register(schema))
		assert.Error(t, registry.Register(schema))
	})

	t.Run("list schemas", func(t *testing.T) {
		registry := NewRegistry()

		for _, name := range []string{"User", "Post", "Comment"} {
			require.NoError(t, registry.Register(NewResourceSchema(name)))
		}

		assert.Equal(t, []string{"Comment", "Post", "User"}, registry.List())
		assert.Len(t, registry.All(), 3)
	})

	t.Run("missing schema is a configuration error", func(t *testing.T) {
		_, err := NewRegistry().MustGet("Nope")
		assert.True(t, apierr.IsConfiguration(err))
	})

	t.Run("validate unknown target", func(t *testing.T) {
		registry := NewRegistry()

		post := NewResourceSchema("Post")
		post.AddRelationship(&Relationship{Type: RelationshipBelongsTo, FieldName: "author", TargetResource: "User"})
		require.NoError(t, registry.Register(post))

		err := registry.ValidateAll()
		assert.ErrorContains(t, err, "Post.author targets unknown resource User")
	})
}

func TestFromClasses(t *testing.T) {
	registry, err := FromClasses(newTestClasses(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Article", "Owner", "Tag"}, registry.List())
	article, ok := registry.Get("Article")
	require.True(t, ok)
	assert.Len(t, article.Relationships, 4)
}

func TestPrimitiveType_RoundTrip(t *testing.T) {
	for _, pt := range []PrimitiveType{TypeString, TypeText, TypeInt, TypeBigInt, TypeFloat, TypeBool, TypeTimestamp, TypeDate, TypeUUID, TypeJSON} {
		parsed, err := ParsePrimitiveType(pt.String())
		require.NoError(t, err)
		assert.Equal(t, pt, parsed)
	}

	_, err := ParsePrimitiveType("money")
	assert.Error(t, err)
}
