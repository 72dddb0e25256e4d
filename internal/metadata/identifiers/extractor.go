// Package identifiers finds the identifier properties of resource classes
// and reads their values from items.
package identifiers

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// Extractor walks property metadata to find identifiers
type Extractor struct {
	registry   *class.Registry
	names      property.NameFactory
	properties property.Factory
}

// NewExtractor creates an extractor
func NewExtractor(registry *class.Registry, names property.NameFactory, properties property.Factory) *Extractor {
	return &Extractor{registry: registry, names: names, properties: properties}
}

// Identifiers returns the identifier properties of resourceClass in
// declaration order
func (e *Extractor) Identifiers(ctx context.Context, resourceClass string) ([]string, error) {
	names, err := e.names.Create(ctx, resourceClass, property.Options{})
	if err != nil {
		return nil, err
	}

	var out []string
	for _, name := range names.Names() {
		md, err := e.properties.Create(ctx, resourceClass, name, property.Options{})
		if err != nil {
			return nil, err
		}
		if md.IsIdentifier() {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, apierr.Configuration("No identifier defined in %q. You should add the identifier option to the api tag of a property.", resourceClass)
	}
	return out, nil
}

// Links returns the identifier links of op: the explicit ones when the
// operation declares some, else one link per identifier of its class.
func (e *Extractor) Links(ctx context.Context, op resource.Operation) ([]resource.Link, error) {
	if links := op.Identifiers(); len(links) > 0 {
		return links, nil
	}
	ids, err := e.Identifiers(ctx, op.Class())
	if err != nil {
		return nil, err
	}
	links := make([]resource.Link, 0, len(ids))
	for _, id := range ids {
		links = append(links, resource.Link{Parameter: id, Class: op.Class(), Property: id})
	}
	return links, nil
}

// IdentifiersFromItem reads the identifier values of item, keyed by
// property name in declaration order. An identifier holding another
// resource is replaced by that resource's own identifier value.
func (e *Extractor) IdentifiersFromItem(ctx context.Context, item interface{}) (*ordered.Map, error) {
	resourceClass, ok := e.registry.ClassOf(item)
	if !ok {
		return nil, fmt.Errorf("%w: no resource class found for object of type %T", apierr.ErrInvalidArgument, item)
	}
	ids, err := e.Identifiers(ctx, resourceClass)
	if err != nil {
		return nil, err
	}

	out := ordered.New()
	for _, id := range ids {
		value, err := class.GetValue(item, id)
		if err != nil {
			return nil, err
		}
		value, err = e.scalar(ctx, value)
		if err != nil {
			return nil, err
		}
		if isEmpty(value) {
			return nil, fmt.Errorf("%w: No identifier value found, did you forget to persist the entity?", apierr.ErrInvalidArgument)
		}
		out.Set(id, value)
	}
	return out, nil
}

func (e *Extractor) scalar(ctx context.Context, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		if _, ok := e.registry.ClassOf(value); !ok {
			return rv.Elem().Interface(), nil
		}
	}
	related, ok := e.registry.ClassOf(value)
	if !ok || !e.registry.IsResourceClass(related) {
		return value, nil
	}

	nested, err := e.IdentifiersFromItem(ctx, value)
	if err != nil {
		return nil, err
	}
	if nested.Len() != 1 {
		return nil, apierr.Configuration("Resource %q is used as an identifier and must have exactly one identifier.", related)
	}
	v, _ := nested.Get(nested.Keys()[0])
	return v, nil
}

// isEmpty reports identifier values an unpersisted item still holds: nil,
// "" and the zero value of numbers, arrays and structs such as time.Time
func isEmpty(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Array, reflect.Struct:
		return rv.IsZero()
	}
	return false
}
