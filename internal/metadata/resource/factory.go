package resource

import (
	"context"
	"fmt"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
)

// CollectionFactory creates every declaration of a resource class
type CollectionFactory interface {
	Create(ctx context.Context, resourceClass string) (MetadataCollection, error)
}

// NameCollectionFactory lists the resource classes
type NameCollectionFactory interface {
	Create(ctx context.Context) ([]string, error)
}

// CollectionFactoryFunc adapts a function to CollectionFactory
type CollectionFactoryFunc func(ctx context.Context, resourceClass string) (MetadataCollection, error)

func (f CollectionFactoryFunc) Create(ctx context.Context, resourceClass string) (MetadataCollection, error) {
	return f(ctx, resourceClass)
}

type terminalFactory struct {
	registry *class.Registry
}

// NewTerminalFactory returns the innermost factory of a chain. It fails for
// classes that are not registered resources.
func NewTerminalFactory(registry *class.Registry) CollectionFactory {
	return terminalFactory{registry: registry}
}

func (f terminalFactory) Create(_ context.Context, resourceClass string) (MetadataCollection, error) {
	if !f.registry.IsResourceClass(resourceClass) {
		return MetadataCollection{}, fmt.Errorf("%w: %s", apierr.ErrResourceClassNotFound, resourceClass)
	}
	return NewMetadataCollection(resourceClass), nil
}

// RegistryNameFactory lists the resource classes of a registry
type RegistryNameFactory struct {
	registry *class.Registry
}

// NewRegistryNameFactory creates a name factory over registry
func NewRegistryNameFactory(registry *class.Registry) *RegistryNameFactory {
	return &RegistryNameFactory{registry: registry}
}

func (f *RegistryNameFactory) Create(_ context.Context) ([]string, error) {
	return f.registry.Classes(), nil
}

// ChainOptions configure the standard collection factory chain
type ChainOptions struct {
	Registry *class.Registry
	YAML     YAMLSource
	Defaults Defaults
	Cached   func(CollectionFactory) CollectionFactory
}

// Chain wires the standard resource metadata factories:
// cached, filters, operation defaults, Go declarations, YAML, terminal.
func Chain(opts ChainOptions) CollectionFactory {
	var f CollectionFactory = NewTerminalFactory(opts.Registry)
	if opts.YAML != nil {
		f = NewYAMLFactory(f, opts.YAML)
	}
	f = NewDeclarationFactory(f, opts.Registry)
	f = NewOperationDefaultsFactory(f, opts.Defaults)
	f = NewFiltersFactory(f, opts.Registry)
	if opts.Cached != nil {
		f = opts.Cached(f)
	}
	return f
}
