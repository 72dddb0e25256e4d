package property

import (
	"encoding/json"
	"math"
	"reflect"
)

// canonical brings a default, an example or an extra value into the one
// form it also has after a trip through the cache pool: numbers become int
// when t is an int type or when they are integral and t says nothing, and
// float64 otherwise. Collections are converted element by element.
func canonical(v interface{}, t *Type) interface{} {
	switch x := v.(type) {
	case nil, string, bool:
		return v
	case json.Number:
		if isBuiltin(t, BuiltinFloat) {
			f, _ := x.Float64()
			return f
		}
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, _ := x.Float64()
		return number(f, t)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = canonical(e, elemType(t))
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = canonical(e, elemType(t))
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number(float64(rv.Int()), t)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return number(float64(rv.Uint()), t)
	case reflect.Float32, reflect.Float64:
		return number(rv.Float(), t)
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = canonical(rv.Index(i).Interface(), elemType(t))
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = canonical(iter.Value().Interface(), elemType(t))
		}
		return out
	}
	return v
}

func number(f float64, t *Type) interface{} {
	if isBuiltin(t, BuiltinFloat) {
		return f
	}
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}

func isBuiltin(t *Type, builtin string) bool {
	return t != nil && !t.Collection && t.Builtin == builtin
}

func elemType(t *Type) *Type {
	if t != nil && t.Collection {
		return t.ValueType
	}
	return nil
}

func canonicalExtra(extra map[string]interface{}) map[string]interface{} {
	if extra == nil {
		return nil
	}
	out := make(map[string]interface{}, len(extra))
	for k, v := range extra {
		out[k] = canonical(v, nil)
	}
	return out
}

// canonicalize re-derives the canonical values after the type changed
func (s *state) canonicalize() {
	s.Default = canonical(s.Default, s.Type)
	s.Example = canonical(s.Example, s.Type)
}
