package property

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Foxprodev/core/internal/class"
)

// TagFactory reads the `api` struct tag:
//
//	Name  string `api:"identifier,readable=false,groups=read|write,security=\"ROLE_ADMIN\" in roles"`
//
// Supported keys: identifier, readable, writable, readableLink, writableLink,
// required, initializable, description, default, example, security,
// securityPostDenormalize, groups and iri. A bare key means true.
type TagFactory struct {
	inner    Factory
	registry *class.Registry
}

// NewTagFactory decorates inner
func NewTagFactory(inner Factory, registry *class.Registry) *TagFactory {
	return &TagFactory{inner: inner, registry: registry}
}

func (f *TagFactory) Create(ctx context.Context, resourceClass, property string, opts Options) (Metadata, error) {
	md, err := f.inner.Create(ctx, resourceClass, property, opts)
	if err != nil {
		return md, err
	}

	t, err := f.registry.Type(resourceClass)
	if err != nil {
		return md, err
	}
	field, ok := class.FieldByName(t, property)
	if !ok {
		return md, nil
	}
	tag, ok := field.Tag.Lookup("api")
	if !ok {
		return md, nil
	}
	return md.Merge(ParseTag(tag)), nil
}

// ParseTag converts an `api` tag value to metadata
func ParseTag(tag string) Metadata {
	md := New()
	for _, part := range splitTag(tag) {
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		flag := true
		if hasValue {
			if b, err := strconv.ParseBool(value); err == nil {
				flag = b
			}
		}

		switch key {
		case "identifier":
			md = md.WithIdentifier(flag)
		case "readable":
			md = md.WithReadable(flag)
		case "writable":
			md = md.WithWritable(flag)
		case "readableLink":
			md = md.WithReadableLink(flag)
		case "writableLink":
			md = md.WithWritableLink(flag)
		case "required":
			md = md.WithRequired(flag)
		case "initializable":
			md = md.WithInitializable(flag)
		case "description":
			md = md.WithDescription(unquote(value))
		case "security":
			md = md.WithSecurity(unquote(value))
		case "securityPostDenormalize":
			md = md.WithSecurityPostDenormalize(unquote(value))
		case "groups":
			md = md.WithGroups(strings.Split(value, "|")...)
		case "iri":
			md = md.WithIris(strings.Split(value, "|")...)
		case "default":
			md = md.WithDefault(literal(value))
		case "example":
			md = md.WithExample(literal(value))
		}
	}
	return md
}

// splitTag splits on commas that are not nested in quotes or brackets, so
// expressions like has(a, b) survive.
func splitTag(tag string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	var quote rune

	for _, r := range tag {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == ',' && depth == 0:
			if s := strings.TrimSpace(current.String()); s != "" {
				parts = append(parts, s)
			}
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

// literal decodes JSON scalars (numbers, booleans, quoted strings) and keeps
// anything else as a plain string.
func literal(s string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return unquote(s)
}
