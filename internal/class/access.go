package class

import (
	"fmt"
	"reflect"

	"github.com/Foxprodev/core/internal/apierr"
)

// GetValue reads the property called name from a struct or a pointer to one.
// A nil embedded pointer on the way yields nil.
func GetValue(object interface{}, name string) (interface{}, error) {
	v := reflect.ValueOf(object)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: cannot read %q on a nil object", apierr.ErrInvalidArgument, name)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: cannot read %q on %T", apierr.ErrInvalidArgument, name, object)
	}

	field, ok := FieldByName(v.Type(), name)
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", apierr.ErrPropertyNotFound, name, v.Type())
	}
	fv, err := v.FieldByIndexErr(field.Index)
	if err != nil {
		return nil, nil
	}
	return fv.Interface(), nil
}

// SetValue writes value into the property called name. object must be a
// pointer to a struct. Nil embedded pointers are allocated and value is
// converted to the field type when Go allows it.
func SetValue(object interface{}, name string, value interface{}) error {
	v := reflect.ValueOf(object)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("%w: cannot write %q on non-pointer %T", apierr.ErrInvalidArgument, name, object)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: cannot write %q on %T", apierr.ErrInvalidArgument, name, object)
	}

	field, ok := FieldByName(v.Type(), name)
	if !ok {
		return fmt.Errorf("%w: %q on %s", apierr.ErrPropertyNotFound, name, v.Type())
	}
	fv := fieldByIndexAlloc(v, field.Index)

	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(fv.Type()):
		fv.Set(rv)
	case fv.Kind() == reflect.Ptr && rv.Type().AssignableTo(fv.Type().Elem()):
		ptr := reflect.New(fv.Type().Elem())
		ptr.Elem().Set(rv)
		fv.Set(ptr)
	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Type().AssignableTo(fv.Type()):
		fv.Set(rv.Elem())
	case convertible(rv.Type(), fv.Type()):
		fv.Set(rv.Convert(fv.Type()))
	default:
		return apierr.NewTypeMismatch(name, field.Type.String(), value)
	}
	return nil
}

func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// convertible allows numeric widening and narrowing but not the
// int to string conversion reflect would otherwise accept.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	if to.Kind() == reflect.String {
		return from.Kind() == reflect.String
	}
	return isNumber(from.Kind()) == isNumber(to.Kind())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
