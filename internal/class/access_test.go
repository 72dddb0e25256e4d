package class

import (
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type AccessBase struct {
	ID int `json:"id"`
}

type accessDummy struct {
	*AccessBase
	Name  string  `json:"name"`
	Alias *string `json:"alias"`
	Price float64 `json:"price"`
}

func TestGetValue(t *testing.T) {
	alias := "bar"
	d := &accessDummy{AccessBase: &AccessBase{ID: 3}, Name: "foo", Alias: &alias}

	name, err := GetValue(d, "name")
	require.NoError(t, err)
	assert.Equal(t, "foo", name)

	id, err := GetValue(*d, "id")
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	id, err = GetValue(&accessDummy{}, "id")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = GetValue(d, "nope")
	assert.ErrorIs(t, err, apierr.ErrPropertyNotFound)
}

func TestSetValue(t *testing.T) {
	d := &accessDummy{}

	require.NoError(t, SetValue(d, "id", 7))
	require.NotNil(t, d.AccessBase)
	assert.Equal(t, 7, d.ID)

	require.NoError(t, SetValue(d, "alias", "bar"))
	require.NotNil(t, d.Alias)
	assert.Equal(t, "bar", *d.Alias)

	require.NoError(t, SetValue(d, "price", 12))
	assert.Equal(t, 12.0, d.Price)

	require.NoError(t, SetValue(d, "alias", nil))
	assert.Nil(t, d.Alias)

	err := SetValue(d, "name", 12)
	require.Error(t, err)
	assert.True(t, apierr.IsUnexpectedValue(err))

	assert.Error(t, SetValue(*d, "name", "x"))
}
