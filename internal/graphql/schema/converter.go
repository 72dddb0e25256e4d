package schema

import (
	"strconv"

	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/kinds"
)

// Iterable carries maps and lists that have no GraphQL type of their own
var Iterable = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Iterable",
	Description: "The `Iterable` scalar type represents an array or a Traversable with any kind of data.",
	Serialize:   func(value interface{}) interface{} { return value },
	ParseValue:  func(value interface{}) interface{} { return value },
	ParseLiteral: func(valueAST ast.Value) interface{} {
		return literal(valueAST)
	},
})

func literal(v ast.Value) interface{} {
	switch v.GetKind() {
	case kinds.ObjectValue:
		out := map[string]interface{}{}
		for _, field := range v.(*ast.ObjectValue).Fields {
			out[field.Name.Value] = literal(field.Value)
		}
		return out
	case kinds.ListValue:
		values := v.(*ast.ListValue).Values
		out := make([]interface{}, len(values))
		for i, item := range values {
			out[i] = literal(item)
		}
		return out
	case kinds.IntValue:
		if n, err := strconv.Atoi(v.(*ast.IntValue).Value); err == nil {
			return n
		}
	case kinds.FloatValue:
		if f, err := strconv.ParseFloat(v.(*ast.FloatValue).Value, 64); err == nil {
			return f
		}
	}
	return v.GetValue()
}

// TypeConverter maps property types that are not resources to GraphQL
// types
type TypeConverter struct{}

// NewTypeConverter creates a converter
func NewTypeConverter() *TypeConverter {
	return &TypeConverter{}
}

// Convert returns the GraphQL type of t, or nil when t cannot be exposed.
// Scalars that are not nullable become non null on output types.
func (c *TypeConverter) Convert(t property.Type, input bool) graphql.Type {
	var out graphql.Type
	if t.IsCollection() {
		out = Iterable
		if t.ValueType != nil {
			if inner := c.scalar(*t.ValueType); inner != nil {
				out = graphql.NewList(inner)
			}
		}
	} else {
		out = c.scalar(t)
		if out == nil {
			switch t.Builtin {
			case property.BuiltinObject, property.BuiltinArray:
				out = Iterable
			default:
				return nil
			}
		}
	}

	if !input && !t.Nullable && !t.IsCollection() && out != Iterable {
		return graphql.NewNonNull(out)
	}
	return out
}

func (c *TypeConverter) scalar(t property.Type) *graphql.Scalar {
	if t.Builtin == property.BuiltinObject {
		switch t.Class {
		case property.ClassDateTime, property.ClassUUID:
			return graphql.String
		}
		return nil
	}
	return c.Builtin(t.Builtin)
}

// Builtin returns the scalar of a builtin type name, nil for unknown names
func (c *TypeConverter) Builtin(name string) *graphql.Scalar {
	switch name {
	case property.BuiltinBool, "boolean":
		return graphql.Boolean
	case property.BuiltinInt, "integer":
		return graphql.Int
	case property.BuiltinFloat:
		return graphql.Float
	case property.BuiltinString:
		return graphql.String
	}
	return nil
}
