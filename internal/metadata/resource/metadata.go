package resource

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
)

// Operations is an ordered name to Operation map. Operations are keyed by
// their name, so an operation must be named before it is added.
type Operations struct {
	names []string
	ops   map[string]Operation
}

// NewOperations builds a collection from named operations
func NewOperations(ops ...Operation) Operations {
	var out Operations
	for _, op := range ops {
		out = out.With(op)
	}
	return out
}

// With returns a copy holding op. An operation with the same name is
// replaced in place.
func (o Operations) With(op Operation) Operations {
	ops := make(map[string]Operation, len(o.ops)+1)
	for k, v := range o.ops {
		ops[k] = v
	}
	names := o.names
	if _, exists := ops[op.Name()]; !exists {
		names = append(append([]string(nil), o.names...), op.Name())
	}
	ops[op.Name()] = op
	return Operations{names: names, ops: ops}
}

// Get returns the operation called name
func (o Operations) Get(name string) (Operation, bool) {
	op, ok := o.ops[name]
	return op, ok
}

// All returns the operations in insertion order
func (o Operations) All() []Operation {
	out := make([]Operation, 0, len(o.names))
	for _, name := range o.names {
		out = append(out, o.ops[name])
	}
	return out
}

// Names returns the operation names in insertion order
func (o Operations) Names() []string {
	return append([]string(nil), o.names...)
}

// Len returns the number of operations
func (o Operations) Len() int { return len(o.names) }

// MarshalJSON encodes the operations as an ordered list
func (o Operations) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.All())
}

// UnmarshalJSON decodes an ordered list of operations
func (o *Operations) UnmarshalJSON(data []byte) error {
	var list []Operation
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*o = NewOperations(list...)
	return nil
}

// Metadata describes one declaration of a resource class. A class may be
// declared several times, for instance once per URI prefix.
type Metadata struct {
	s metadataState
}

type metadataState struct {
	Class             string     `json:"class"`
	ShortName         string     `json:"short_name,omitempty"`
	Description       string     `json:"description,omitempty"`
	Defaults          Operation  `json:"defaults"`
	Operations        Operations `json:"operations"`
	GraphQLOperations Operations `json:"graphql_operations"`
	GraphQLDisabled   bool       `json:"graphql_disabled,omitempty"`
}

// New returns an empty declaration for class
func New(class string) Metadata {
	return Metadata{s: metadataState{Class: class}}
}

func (m Metadata) Class() string { return m.s.Class }
func (m Metadata) ShortName() string { return m.s.ShortName }
func (m Metadata) Description() string { return m.s.Description }
func (m Metadata) Defaults() Operation { return m.s.Defaults }
func (m Metadata) Operations() Operations { return m.s.Operations }
func (m Metadata) GraphQLOperations() Operations { return m.s.GraphQLOperations }
func (m Metadata) GraphQLDisabled() bool { return m.s.GraphQLDisabled }

func (m Metadata) WithClass(class string) Metadata {
	m.s.Class = class
	return m
}

func (m Metadata) WithShortName(name string) Metadata {
	m.s.ShortName = name
	return m
}

func (m Metadata) WithDescription(d string) Metadata {
	m.s.Description = d
	return m
}

// WithDefaults sets the operation every operation inherits unset facets from
func (m Metadata) WithDefaults(op Operation) Metadata {
	m.s.Defaults = op
	return m
}

// WithOperations replaces the REST operations. Unnamed operations get their
// name from the defaults factory, so they are keyed by position until then.
func (m Metadata) WithOperations(ops ...Operation) Metadata {
	m.s.Operations = NewOperations(provisionalNames(ops)...)
	return m
}

// WithGraphQLOperations replaces the GraphQL operations
func (m Metadata) WithGraphQLOperations(ops ...Operation) Metadata {
	m.s.GraphQLOperations = NewOperations(provisionalNames(ops)...)
	return m
}

// WithGraphQLDisabled keeps the resource out of the GraphQL schema
func (m Metadata) WithGraphQLDisabled(disabled bool) Metadata {
	m.s.GraphQLDisabled = disabled
	return m
}

func provisionalNames(ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		if op.Name() == "" {
			op = op.WithName(fmt.Sprintf("%s%d", provisionalPrefix, i))
		}
		out[i] = op
	}
	return out
}

const provisionalPrefix = "__unnamed_"

func isProvisional(name string) bool {
	return strings.HasPrefix(name, provisionalPrefix)
}

// MarshalJSON encodes the declaration for the cache pool
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.s)
}

// UnmarshalJSON decodes a declaration read back from the cache pool
func (m *Metadata) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &m.s)
}

// MetadataCollection holds every declaration of one resource class
type MetadataCollection struct {
	Class    string     `json:"class"`
	Metadata []Metadata `json:"metadata"`
}

// NewMetadataCollection creates a collection for class
func NewMetadataCollection(class string, metadata ...Metadata) MetadataCollection {
	return MetadataCollection{Class: class, Metadata: metadata}
}

// Operation finds an operation by name or URI template. With an empty name
// it returns the first GET operation that is a collection when
// forceCollection is set and an item otherwise. GraphQL operations are only
// considered when httpOperation is false.
func (c MetadataCollection) Operation(name string, forceCollection, httpOperation bool) (Operation, error) {
	for _, md := range c.Metadata {
		for _, op := range md.Operations().All() {
			method := op.Method()
			if method == "" {
				method = op.Kind().Method()
			}
			isGet := method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
			if name == "" && isGet && op.IsCollection() == forceCollection {
				return op, nil
			}
			if op.Name() == name && name != "" {
				return op, nil
			}
			if name != "" && op.UriTemplate() == name {
				return op, nil
			}
		}

		for _, op := range md.GraphQLOperations().All() {
			if name == "" && !httpOperation && op.IsCollection() == forceCollection {
				return op, nil
			}
			if name != "" && op.Name() == name {
				return op, nil
			}
		}
	}

	return Operation{}, fmt.Errorf("%w: Operation %q not found for resource %q.", apierr.ErrOperationNotFound, name, c.Class)
}

// ShortName returns the short name of the first declaration
func (c MetadataCollection) ShortName() string {
	for _, md := range c.Metadata {
		if md.ShortName() != "" {
			return md.ShortName()
		}
	}
	return ""
}
