package serializer

import (
	ustrings "github.com/Foxprodev/core/internal/util/strings"
)

// NameConverter maps property names to wire names and back
type NameConverter interface {
	Normalize(property string) string
	Denormalize(name string) string
}

// CamelCaseToSnakeCase writes publishedAt as published_at
type CamelCaseToSnakeCase struct{}

func (CamelCaseToSnakeCase) Normalize(property string) string {
	return ustrings.ToSnakeCase(property)
}

func (CamelCaseToSnakeCase) Denormalize(name string) string {
	return ustrings.ToCamelCase(name)
}

// NameConverterByName returns the converter configured as name. The empty
// name keeps property names as they are.
func NameConverterByName(name string) (NameConverter, bool) {
	switch name {
	case "":
		return nil, true
	case "snake_case", "camel_case_to_snake_case":
		return CamelCaseToSnakeCase{}, true
	}
	return nil, false
}

func normalizeName(c NameConverter, property string) string {
	if c == nil {
		return property
	}
	return c.Normalize(property)
}

func denormalizeName(c NameConverter, name string) string {
	if c == nil {
		return name
	}
	return c.Denormalize(name)
}
