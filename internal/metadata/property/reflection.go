package property

import (
	"context"
	"reflect"
	"time"

	"github.com/Foxprodev/core/internal/class"
	"github.com/google/uuid"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// ReflectionFactory infers the type of a property from its Go field when no
// other source declared one.
type ReflectionFactory struct {
	inner    Factory
	registry *class.Registry
}

// NewReflectionFactory decorates inner
func NewReflectionFactory(inner Factory, registry *class.Registry) *ReflectionFactory {
	return &ReflectionFactory{inner: inner, registry: registry}
}

func (f *ReflectionFactory) Create(ctx context.Context, resourceClass, property string, opts Options) (Metadata, error) {
	md, err := f.inner.Create(ctx, resourceClass, property, opts)
	if err != nil || md.Type() != nil {
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
	if typ, ok := TypeOf(field.Type, f.registry); ok {
		md = md.WithType(typ)
	}
	return md, nil
}

// TypeOf maps a Go type to a property Type. Registered structs map to their
// class name; pointers are nullable.
func TypeOf(t reflect.Type, registry *class.Registry) (Type, bool) {
	nullable := false
	for t.Kind() == reflect.Ptr {
		nullable = true
		t = t.Elem()
	}

	switch t {
	case timeType:
		return NewType(BuiltinObject, nullable, ClassDateTime), true
	case uuidType:
		return NewType(BuiltinObject, nullable, ClassUUID), true
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewType(BuiltinInt, nullable, ""), true
	case reflect.Float32, reflect.Float64:
		return NewType(BuiltinFloat, nullable, ""), true
	case reflect.String:
		return NewType(BuiltinString, nullable, ""), true
	case reflect.Bool:
		return NewType(BuiltinBool, nullable, ""), true
	case reflect.Struct:
		class := t.String()
		if registry != nil {
			if name, ok := registry.ClassOfType(t); ok {
				class = name
			}
		}
		return NewType(BuiltinObject, nullable, class), true
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return NewType(BuiltinString, nullable, ""), true
		}
		value, ok := TypeOf(t.Elem(), registry)
		if !ok {
			return NewCollectionType(t.Kind() == reflect.Slice, nil, nil), true
		}
		return NewCollectionType(t.Kind() == reflect.Slice, nil, &value), true
	case reflect.Map:
		key, _ := TypeOf(t.Key(), registry)
		value, ok := TypeOf(t.Elem(), registry)
		if !ok {
			return NewCollectionType(true, &key, nil), true
		}
		return NewCollectionType(true, &key, &value), true
	}
	return Type{}, false
}
