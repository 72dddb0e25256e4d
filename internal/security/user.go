// Package security evaluates the access control expressions declared on
// resources and properties.
package security

import (
	"context"
)

// User is the authenticated caller
type User struct {
	ID     string
	Email  string
	Roles  []string
	Claims map[string]interface{}
}

type userKey struct{}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user stored in ctx, or nil for anonymous
// requests
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userKey{}).(*User)
	return user
}

// Map exposes the user to expressions. Anonymous users are null.
func (u *User) Map() map[string]interface{} {
	if u == nil {
		return nil
	}
	out := make(map[string]interface{}, len(u.Claims)+3)
	for k, v := range u.Claims {
		out[k] = v
	}
	out["id"] = u.ID
	out["email"] = u.Email
	out["roles"] = u.Roles
	return out
}
