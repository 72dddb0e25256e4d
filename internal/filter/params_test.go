package filter

import (
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	m, err := ParseQuery("order[title]=asc&name=J+Doe&order[id]=desc&tags[]=a&tags[]=b&author.name=kim&price[between]=1..5")
	require.NoError(t, err)

	assert.Equal(t, []string{"order", "name", "tags", "author.name", "price"}, m.Keys())

	order, _ := m.Get("order")
	require.IsType(t, &ordered.Map{}, order)
	assert.Equal(t, []string{"title", "id"}, order.(*ordered.Map).Keys())

	name, _ := m.Get("name")
	assert.Equal(t, "J Doe", name)

	tags, _ := m.Get("tags")
	assert.Equal(t, []interface{}{"a", "b"}, tags)

	price, _ := m.Get("price")
	between, _ := price.(*ordered.Map).Get("between")
	assert.Equal(t, "1..5", between)
}

func TestParseQuery_Empty(t *testing.T) {
	m, err := ParseQuery("")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	m, err = ParseQuery("&flag&")
	require.NoError(t, err)
	flag, ok := m.Get("flag")
	assert.True(t, ok)
	assert.Equal(t, "", flag)
}

func TestParseQuery_Malformed(t *testing.T) {
	for _, raw := range []string{"order[title=asc", "a%zz=1", "order[a]x=1"} {
		_, err := ParseQuery(raw)
		assert.ErrorIs(t, err, apierr.ErrInvalidArgument, raw)
	}
}
