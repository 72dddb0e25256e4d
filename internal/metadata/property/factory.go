package property

import (
	"context"
	"fmt"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
)

// Options narrow the metadata computed for a property. They are part of the
// cache key.
type Options struct {
	SerializerGroups []string `json:"serializer_groups,omitempty"`
	OperationName    string   `json:"operation_name,omitempty"`
}

// Factory creates the metadata of one property
type Factory interface {
	Create(ctx context.Context, resourceClass, property string, opts Options) (Metadata, error)
}

// NameFactory lists the properties of a class
type NameFactory interface {
	Create(ctx context.Context, resourceClass string, opts Options) (NameCollection, error)
}

// FactoryFunc adapts a function to Factory
type FactoryFunc func(ctx context.Context, resourceClass, property string, opts Options) (Metadata, error)

func (f FactoryFunc) Create(ctx context.Context, resourceClass, property string, opts Options) (Metadata, error) {
	return f(ctx, resourceClass, property, opts)
}

// terminalFactory ends every chain: unknown classes fail, known ones start empty.
type terminalFactory struct {
	registry *class.Registry
}

// NewTerminalFactory returns the innermost factory of a chain
func NewTerminalFactory(registry *class.Registry) Factory {
	return terminalFactory{registry: registry}
}

func (f terminalFactory) Create(_ context.Context, resourceClass, _ string, _ Options) (Metadata, error) {
	if !f.registry.Has(resourceClass) {
		return Metadata{}, fmt.Errorf("%w: %s", apierr.ErrResourceClassNotFound, resourceClass)
	}
	return New(), nil
}

// DefaultsFactory fills whatever is still unset after every other source:
// properties are readable, and writable unless they are identifiers.
type DefaultsFactory struct {
	inner Factory
}

// NewDefaultsFactory decorates inner
func NewDefaultsFactory(inner Factory) *DefaultsFactory {
	return &DefaultsFactory{inner: inner}
}

func (f *DefaultsFactory) Create(ctx context.Context, resourceClass, property string, opts Options) (Metadata, error) {
	md, err := f.inner.Create(ctx, resourceClass, property, opts)
	if err != nil {
		return md, err
	}
	return md.Merge(New().
		WithReadable(true).
		WithWritable(!md.IsIdentifier()).
		WithIdentifier(false)), nil
}

// Chain wires the standard property metadata factories:
// cached, defaults, groups, reflection, struct tags, YAML, terminal.
func Chain(registry *class.Registry, yamlSource YAMLSource, names NameFactory, cached func(Factory) Factory) Factory {
	var f Factory = NewTerminalFactory(registry)
	if yamlSource != nil {
		f = NewYAMLFactory(f, yamlSource)
	}
	f = NewTagFactory(f, registry)
	f = NewReflectionFactory(f, registry)
	f = NewGroupsFactory(f, names, registry)
	f = NewDefaultsFactory(f)
	if cached != nil {
		f = cached(f)
	}
	return f
}
