// Package stage holds the steps of a GraphQL field resolution.
//
// Queries run read, security, security post denormalize and serialize.
// Mutations run read, security, deserialize, security post denormalize,
// validate, write and serialize. Every step reads the resolved operation
// and may short-circuit the resolution with an error.
package stage

import (
	"context"

	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// Context is the state of one field resolution
type Context struct {
	// Args are the field arguments in the order the query gives them
	Args *ordered.Map
	// Source is the normalized parent object, nil for root fields
	Source map[string]interface{}
	// Field is the name of the resolved field
	Field string
	// Attributes are the fields selected below the resolved one
	Attributes serializer.AttributeFilter

	IsCollection   bool
	IsMutation     bool
	IsSubscription bool
}

// Arg returns an argument
func (c Context) Arg(name string) (interface{}, bool) {
	return c.Args.Get(name)
}

// Input returns the input argument of a mutation
func (c Context) Input() *ordered.Map {
	raw, ok := c.Args.Get("input")
	if !ok {
		return nil
	}
	input, _ := serializer.AsOrderedMap(raw)
	return input
}

// ClientMutationID returns the clientMutationId given in the input, or nil
func (c Context) ClientMutationID() interface{} {
	v, _ := c.Input().Get("clientMutationId")
	return v
}

// Identifier returns the id argument, or the id of the mutation input
func (c Context) Identifier() string {
	if v, ok := c.Args.Get("id"); ok {
		s, _ := v.(string)
		return s
	}
	v, _ := c.Input().Get("id")
	s, _ := v.(string)
	return s
}

// Validator checks an object before it is written
type Validator interface {
	Validate(ctx context.Context, object interface{}, groups []string) error
}

// Persister writes objects
type Persister interface {
	Persist(ctx context.Context, object interface{}) (interface{}, error)
	Remove(ctx context.Context, object interface{}) error
}
