package serializer

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/identifier"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/google/uuid"
)

// normalizeScalar handles the values written as JSON scalars
func normalizeScalar(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case time.Time:
		return v.Format(time.RFC3339), true
	case uuid.UUID:
		return v.String(), true
	case []byte:
		return string(v), true
	case json.Number, *ordered.Map:
		return v, true
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v, true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return nil, false
}

// denormalizeScalar checks value against typ. XML and CSV carry every
// value as a string, so for them strings are coerced to the expected
// type.
func denormalizeScalar(attribute string, typ property.Type, value interface{}, format string) (interface{}, error) {
	coerce := format == FormatXML || format == FormatCSV
	s, isString := value.(string)

	switch typ.Builtin {
	case property.BuiltinInt:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return v, nil
		case float64:
			if v == math.Trunc(v) {
				return int64(v), nil
			}
		case json.Number:
			if i, err := v.Int64(); err == nil {
				return i, nil
			}
		}
		if isString && coerce {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i, nil
			}
		}

	case property.BuiltinFloat:
		switch v := value.(type) {
		case float32, float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, nil
			}
		}
		if isString && coerce {
			switch s {
			case "NaN":
				return math.NaN(), nil
			case "INF":
				return math.Inf(1), nil
			case "-INF":
				return math.Inf(-1), nil
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, nil
			}
		}

	case property.BuiltinBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		if isString && coerce {
			switch s {
			case "true", "1":
				return true, nil
			case "false", "0":
				return false, nil
			}
		}

	case property.BuiltinString:
		if isString {
			return s, nil
		}

	case property.BuiltinObject:
		switch typ.Class {
		case property.ClassDateTime:
			if t, ok := value.(time.Time); ok {
				return t, nil
			}
			if isString {
				if t, err := parseTime(s); err == nil {
					return t, nil
				}
			}
		case property.ClassUUID:
			if isString {
				if id, err := uuid.Parse(s); err == nil {
					return id, nil
				}
			}
		default:
			if m, ok := AsOrderedMap(value); ok {
				return m.ToMap(), nil
			}
		}

	default:
		return plainValue(value), nil
	}

	return nil, apierr.NewTypeMismatch(attribute, typ.String(), value)
}

func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range identifier.DateTimeFormats {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// AsOrderedMap accepts decoded objects in either form. Plain maps are
// read in key order.
func AsOrderedMap(value interface{}) (*ordered.Map, bool) {
	switch v := value.(type) {
	case *ordered.Map:
		return v, v != nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := ordered.New()
		for _, k := range keys {
			m.Set(k, v[k])
		}
		return m, true
	}
	return nil, false
}

// plainValue turns decoded ordered maps into Go maps
func plainValue(value interface{}) interface{} {
	switch v := value.(type) {
	case *ordered.Map:
		return v.ToMap()
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}
		return out
	}
	return value
}

func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return strings.Compare(fmt.Sprint(keys[i].Interface()), fmt.Sprint(keys[j].Interface())) < 0
	})
	return keys
}
