package class

import (
	"reflect"
	"strings"
	"sync"

	ustrings "github.com/Foxprodev/core/internal/util/strings"
)

// Field describes one exported struct field exposed as a property.
type Field struct {
	// Name is the property name: the json tag name, else the lowerCamel field name
	Name   string
	GoName string
	Index  []int
	Type   reflect.Type
	Tag    reflect.StructTag
}

var fieldCache sync.Map // reflect.Type -> []Field

// Fields returns the properties of a struct type in declaration order.
// Anonymous embedded structs without a json name are flattened; fields tagged
// json:"-" or api:"-" and unexported fields are skipped.
func Fields(t reflect.Type) []Field {
	t = structType(t)
	if t == nil {
		return nil
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Field)
	}

	fields := collectFields(t, nil)
	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.([]Field)
}

// FieldByName returns the property called name
func FieldByName(t reflect.Type, name string) (Field, bool) {
	for _, f := range Fields(t) {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func collectFields(t reflect.Type, index []int) []Field {
	var out []Field
	seen := make(map[string]bool)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		idx := append(append([]int(nil), index...), i)

		if sf.Tag.Get("api") == "-" {
			continue
		}
		jsonName, skip := jsonFieldName(sf.Tag.Get("json"))
		if skip {
			continue
		}

		if sf.Anonymous && jsonName == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				for _, inner := range collectFields(ft, idx) {
					if !seen[inner.Name] {
						seen[inner.Name] = true
						out = append(out, inner)
					}
				}
				continue
			}
		}

		if !sf.IsExported() {
			continue
		}

		name := jsonName
		if name == "" {
			name = ustrings.FieldName(sf.Name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		out = append(out, Field{
			Name:   name,
			GoName: sf.Name,
			Index:  idx,
			Type:   sf.Type,
			Tag:    sf.Tag,
		})
	}
	return out
}

func jsonFieldName(tag string) (string, bool) {
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	return name, false
}
