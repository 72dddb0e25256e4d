// Package schema builds the GraphQL schema of the API resources.
//
// The SchemaBuilder walks every resource class, and for each GraphQL
// operation the FieldsBuilder adds a query, mutation or subscription field
// whose resolver comes from package resolver. Types are created once by
// the TypeBuilder and kept by name in a TypesContainer, so resources that
// reference each other share one type instance.
package schema

import (
	"github.com/Foxprodev/core/internal/apierr"
	"github.com/graphql-go/graphql"
)

// TypesContainer keeps the GraphQL types of a schema by name
type TypesContainer struct {
	types map[string]graphql.Type
	names []string
}

// NewTypesContainer creates an empty container
func NewTypesContainer() *TypesContainer {
	return &TypesContainer{types: map[string]graphql.Type{}}
}

// Has reports whether a type is registered under name
func (c *TypesContainer) Has(name string) bool {
	_, ok := c.types[name]
	return ok
}

// Get returns the type registered under name
func (c *TypesContainer) Get(name string) (graphql.Type, error) {
	t, ok := c.types[name]
	if !ok {
		return nil, apierr.Configuration("Type with id %q is not present in the types container", name)
	}
	return t, nil
}

// Set registers t under name, replacing any previous type
func (c *TypesContainer) Set(name string, t graphql.Type) {
	if _, ok := c.types[name]; !ok {
		c.names = append(c.names, name)
	}
	c.types[name] = t
}

// All returns the types in registration order
func (c *TypesContainer) All() []graphql.Type {
	out := make([]graphql.Type, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.types[name])
	}
	return out
}

// Objects returns the object types in registration order
func (c *TypesContainer) Objects() []*graphql.Object {
	var out []*graphql.Object
	for _, name := range c.names {
		if o, ok := c.types[name].(*graphql.Object); ok {
			out = append(out, o)
		}
	}
	return out
}
