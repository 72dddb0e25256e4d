package serializer

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/go-viper/mapstructure/v2"
)

// PropertyAccessor reads and writes properties by dotted path
type PropertyAccessor interface {
	GetValue(object interface{}, path string) (interface{}, error)
	SetValue(object interface{}, path string, value interface{}) error
}

// ReflectionAccessor accesses struct fields by property name
type ReflectionAccessor struct{}

func (ReflectionAccessor) GetValue(object interface{}, path string) (interface{}, error) {
	current := object
	for _, name := range strings.Split(path, ".") {
		if current == nil {
			return nil, nil
		}
		v, err := class.GetValue(current, name)
		if err != nil {
			return nil, err
		}
		current = v
	}
	return current, nil
}

// SetValue writes value at path. Nil pointers on the way are allocated and
// []interface{} values are converted to the slice type of the field.
func (ReflectionAccessor) SetValue(object interface{}, path string, value interface{}) error {
	parts := strings.Split(path, ".")
	target := reflect.ValueOf(object)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return fmt.Errorf("%w: cannot write %q on non-pointer %T", apierr.ErrInvalidArgument, path, object)
	}

	for _, name := range parts[:len(parts)-1] {
		elem := target.Elem()
		field, ok := class.FieldByName(elem.Type(), name)
		if !ok {
			return fmt.Errorf("%w: %q on %s", apierr.ErrPropertyNotFound, name, elem.Type())
		}
		fv := elem.FieldByIndex(field.Index)
		switch {
		case fv.Kind() == reflect.Ptr:
			if fv.IsNil() {
				fv.Set(reflect.New(fv.Type().Elem()))
			}
			target = fv
		case fv.Kind() == reflect.Struct:
			target = fv.Addr()
		default:
			return fmt.Errorf("%w: %q is not an object", apierr.ErrInvalidArgument, name)
		}
	}

	last := parts[len(parts)-1]
	field, ok := class.FieldByName(target.Elem().Type(), last)
	if !ok {
		return fmt.Errorf("%w: %q on %s", apierr.ErrPropertyNotFound, last, target.Elem().Type())
	}
	converted, err := convertTo(value, field.Type)
	if err != nil {
		return apierr.NewTypeMismatch(path, field.Type.String(), value)
	}
	return class.SetValue(target.Interface(), last, converted)
}

// convertTo converts generic slices and maps to t where the element types
// allow it. Other values are returned unchanged.
func convertTo(value interface{}, t reflect.Type) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		return value, nil
	}
	if m, ok := value.(map[string]interface{}); ok && structBase(t) != nil {
		return decodeStruct(m, t)
	}

	switch t.Kind() {
	case reflect.Slice:
		if rv.Kind() != reflect.Slice {
			return value, nil
		}
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := element(rv.Index(i).Interface(), t.Elem())
			if err != nil {
				return nil, err
			}
			out.Index(i).Set(elem)
		}
		return out.Interface(), nil
	case reflect.Map:
		if rv.Kind() != reflect.Map || t.Key().Kind() != reflect.String {
			return value, nil
		}
		out := reflect.MakeMapWithSize(t, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elem, err := element(iter.Value().Interface(), t.Elem())
			if err != nil {
				return nil, err
			}
			out.SetMapIndex(reflect.ValueOf(fmt.Sprint(iter.Key().Interface())).Convert(t.Key()), elem)
		}
		return out.Interface(), nil
	}
	return value, nil
}

func element(value interface{}, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	converted, err := convertTo(value, t)
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.ValueOf(converted)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case t.Kind() == reflect.Ptr && rv.Type().AssignableTo(t.Elem()):
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(rv)
		return ptr, nil
	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Type().AssignableTo(t):
		return rv.Elem(), nil
	case isNumber(rv.Kind()) && isNumber(t.Kind()):
		return rv.Convert(t), nil
	case rv.Kind() == reflect.String && t.Kind() == reflect.String:
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", value, t)
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64 && k != reflect.Uintptr
}

func structBase(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == reflect.TypeOf(time.Time{}) {
		return nil
	}
	return t
}

// decodeStruct decodes an embedded object that is not a resource
func decodeStruct(m map[string]interface{}, t reflect.Type) (interface{}, error) {
	target := reflect.New(structBase(t))
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           target.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, err
	}
	if t.Kind() == reflect.Ptr {
		return target.Interface(), nil
	}
	return target.Elem().Interface(), nil
}
