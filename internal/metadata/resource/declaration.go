package resource

import (
	"context"

	"github.com/Foxprodev/core/internal/class"
)

// Declarer is implemented by resource structs that declare their own
// operations. It is called on a zero value.
//
//	func (Dummy) APIResources() []resource.Metadata {
//		return []resource.Metadata{
//			resource.New("Dummy").WithOperations(resource.Get(), resource.GetCollection()),
//		}
//	}
type Declarer interface {
	APIResources() []Metadata
}

// DeclarationFactory appends the declarations made in Go code
type DeclarationFactory struct {
	inner    CollectionFactory
	registry *class.Registry
}

// NewDeclarationFactory decorates inner
func NewDeclarationFactory(inner CollectionFactory, registry *class.Registry) *DeclarationFactory {
	return &DeclarationFactory{inner: inner, registry: registry}
}

func (f *DeclarationFactory) Create(ctx context.Context, resourceClass string) (MetadataCollection, error) {
	c, err := f.inner.Create(ctx, resourceClass)
	if err != nil {
		return c, err
	}

	object, err := f.registry.New(resourceClass)
	if err != nil {
		return c, err
	}
	declarer, ok := object.(Declarer)
	if !ok {
		return c, nil
	}
	for _, md := range declarer.APIResources() {
		c.Metadata = append(c.Metadata, md.WithClass(resourceClass))
	}
	return c, nil
}
