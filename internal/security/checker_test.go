package security

import (
	"context"
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type book struct {
	ID    int    `json:"id"`
	Owner string `json:"owner"`
	Price int    `json:"price"`
}

func newTestChecker(t *testing.T) *CELChecker {
	t.Helper()
	c, err := NewCELChecker(NewRoleHierarchy(map[string][]string{
		"ROLE_ADMIN": {"ROLE_EDITOR"},
	}), nil)
	require.NoError(t, err)
	return c
}

func TestCELChecker_IsGranted(t *testing.T) {
	c := newTestChecker(t)
	admin := WithUser(context.Background(), &User{ID: "u1", Roles: []string{"ROLE_ADMIN"}})
	reader := WithUser(context.Background(), &User{ID: "u2", Roles: []string{"ROLE_USER"}})
	anonymous := context.Background()
	object := &book{ID: 1, Owner: "u2", Price: 10}

	tests := []struct {
		name       string
		ctx        context.Context
		expression string
		vars       Vars
		want       bool
	}{
		{"empty expression", anonymous, "", Vars{}, true},
		{"role", admin, `"ROLE_ADMIN" in roles`, Vars{}, true},
		{"implied role", admin, `"ROLE_EDITOR" in roles`, Vars{}, true},
		{"missing role", reader, `"ROLE_ADMIN" in roles`, Vars{}, false},
		{"owner", reader, `object.owner == user.id`, Vars{Object: object}, true},
		{"not owner", admin, `object.owner == user.id`, Vars{Object: object}, false},
		{"anonymous", anonymous, `user != null`, Vars{}, false},
		{"integer property", reader, `object.price == 10`, Vars{Object: object}, true},
		{"previous object", reader, `previous_object.price < object.price`,
			Vars{Object: &book{Price: 20}, PreviousObject: object}, true},
		{"request", reader, `request.method == "GET"`,
			Vars{Request: map[string]interface{}{"method": "GET"}}, true},
		{"missing field denies", reader, `object.unknown == 1`, Vars{Object: object}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			granted, err := c.IsGranted(tt.ctx, "Book", tt.expression, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, granted)
		})
	}
}

func TestCELChecker_Errors(t *testing.T) {
	c := newTestChecker(t)
	ctx := context.Background()

	_, err := c.IsGranted(ctx, "Book", `roles.(`, Vars{})
	assert.True(t, apierr.IsConfiguration(err))

	_, err = c.IsGranted(ctx, "Book", `"x"`, Vars{})
	assert.True(t, apierr.IsConfiguration(err), "non boolean expressions are configuration errors")
}

func TestCELChecker_MemoizesPrograms(t *testing.T) {
	c := newTestChecker(t)
	ctx := context.Background()

	first, err := c.program(`"A" in roles`)
	require.NoError(t, err)
	second, err := c.program(`"A" in roles`)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = c.IsGranted(ctx, "Book", `"A" in roles`, Vars{})
	require.NoError(t, err)
}
