package property

import (
	"context"
	"fmt"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
)

// ReflectionNameFactory lists struct fields in declaration order
type ReflectionNameFactory struct {
	registry *class.Registry
}

// NewReflectionNameFactory returns the innermost name factory
func NewReflectionNameFactory(registry *class.Registry) *ReflectionNameFactory {
	return &ReflectionNameFactory{registry: registry}
}

func (f *ReflectionNameFactory) Create(_ context.Context, resourceClass string, _ Options) (NameCollection, error) {
	t, err := f.registry.Type(resourceClass)
	if err != nil {
		return NameCollection{}, fmt.Errorf("%w: %s", apierr.ErrResourceClassNotFound, resourceClass)
	}

	var names NameCollection
	for _, field := range class.Fields(t) {
		names = names.With(field.Name)
	}
	return names, nil
}

// YAMLNameFactory appends properties that only exist in configuration
type YAMLNameFactory struct {
	inner  NameFactory
	source YAMLSource
}

// NewYAMLNameFactory decorates inner
func NewYAMLNameFactory(inner NameFactory, source YAMLSource) *YAMLNameFactory {
	return &YAMLNameFactory{inner: inner, source: source}
}

func (f *YAMLNameFactory) Create(ctx context.Context, resourceClass string, opts Options) (NameCollection, error) {
	names, err := f.inner.Create(ctx, resourceClass, opts)
	if err != nil {
		return names, err
	}

	rc, ok, err := f.source.Resource(resourceClass)
	if err != nil || !ok {
		return names, err
	}
	for _, p := range rc.Properties {
		names = names.With(p.Name)
	}
	return names, nil
}

// NameChain wires reflection, YAML and the optional cache decorator
func NameChain(registry *class.Registry, yamlSource YAMLSource, cached func(NameFactory) NameFactory) NameFactory {
	var f NameFactory = NewReflectionNameFactory(registry)
	if yamlSource != nil {
		f = NewYAMLNameFactory(f, yamlSource)
	}
	if cached != nil {
		f = cached(f)
	}
	return f
}
