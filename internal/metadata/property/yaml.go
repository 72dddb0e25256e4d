package property

import (
	"context"
	"strings"

	"github.com/Foxprodev/core/internal/metadata/extractor"
)

// YAMLSource is the part of the YAML extractor used here
type YAMLSource interface {
	Resource(class string) (extractor.ResourceConfig, bool, error)
}

// YAMLFactory applies the properties section of resource configuration files
type YAMLFactory struct {
	inner  Factory
	source YAMLSource
}

// NewYAMLFactory decorates inner
func NewYAMLFactory(inner Factory, source YAMLSource) *YAMLFactory {
	return &YAMLFactory{inner: inner, source: source}
}

func (f *YAMLFactory) Create(ctx context.Context, resourceClass, property string, opts Options) (Metadata, error) {
	md, err := f.inner.Create(ctx, resourceClass, property, opts)
	if err != nil {
		return md, err
	}

	rc, ok, err := f.source.Resource(resourceClass)
	if err != nil || !ok {
		return md, err
	}
	pc, ok := rc.Property(property)
	if !ok {
		return md, nil
	}
	return md.Merge(fromConfig(pc)), nil
}

func fromConfig(pc extractor.PropertyConfig) Metadata {
	md := New().
		WithDescription(pc.Description).
		WithDefault(pc.Default).
		WithExample(pc.Example).
		WithSecurity(pc.Security).
		WithSecurityPostDenormalize(pc.SecurityPostDenormalize)

	if pc.Type != "" {
		md = md.WithType(ParseType(pc.Type))
	}
	if pc.Groups != nil {
		md = md.WithGroups(pc.Groups...)
	}
	if pc.Iris != nil {
		md = md.WithIris(pc.Iris...)
	}

	set := func(b *bool, with func(Metadata, bool) Metadata) {
		if b != nil {
			md = with(md, *b)
		}
	}
	set(pc.Readable, Metadata.WithReadable)
	set(pc.Writable, Metadata.WithWritable)
	set(pc.ReadableLink, Metadata.WithReadableLink)
	set(pc.WritableLink, Metadata.WithWritableLink)
	set(pc.Required, Metadata.WithRequired)
	set(pc.Identifier, Metadata.WithIdentifier)
	set(pc.Initializable, Metadata.WithInitializable)
	return md
}

// ParseType parses a short type notation: int, ?string, Dummy, Dummy[],
// time.Time. Unknown lower-case words are treated as class names.
func ParseType(s string) Type {
	nullable := strings.HasPrefix(s, "?")
	s = strings.TrimPrefix(s, "?")

	if strings.HasSuffix(s, "[]") {
		value := ParseType(strings.TrimSuffix(s, "[]"))
		return NewCollectionType(nullable, nil, &value)
	}

	switch s {
	case BuiltinInt, BuiltinFloat, BuiltinString, BuiltinBool, BuiltinNull:
		return NewType(s, nullable, "")
	case BuiltinArray:
		return NewCollectionType(nullable, nil, nil)
	case BuiltinObject:
		return NewType(BuiltinObject, nullable, "")
	}
	return NewType(BuiltinObject, nullable, s)
}
