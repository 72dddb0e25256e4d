package resolver

import (
	"sort"
	"strings"

	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Args returns the coerced arguments of the resolved field in the order
// the query writes them. Objects become ordered maps; arguments coming
// from defaults or variables follow in key order.
func Args(p graphql.ResolveParams) *ordered.Map {
	out := ordered.New()
	if len(p.Info.FieldASTs) > 0 {
		for _, arg := range p.Info.FieldASTs[0].Arguments {
			name := arg.Name.Value
			if v, ok := p.Args[name]; ok {
				out.Set(name, orderedValue(v, arg.Value))
			}
		}
	}
	for _, name := range sortedKeys(p.Args) {
		if !out.Has(name) {
			out.Set(name, orderedValue(p.Args[name], nil))
		}
	}
	return out
}

func orderedValue(v interface{}, node ast.Value) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := ordered.New()
		if obj, ok := node.(*ast.ObjectValue); ok {
			for _, field := range obj.Fields {
				name := field.Name.Value
				if fv, ok := t[name]; ok {
					out.Set(name, orderedValue(fv, field.Value))
				}
			}
		}
		for _, name := range sortedKeys(t) {
			if !out.Has(name) {
				out.Set(name, orderedValue(t[name], nil))
			}
		}
		return out

	case []interface{}:
		list, _ := node.(*ast.ListValue)
		out := make([]interface{}, len(t))
		for i, item := range t {
			var itemNode ast.Value
			if list != nil && i < len(list.Values) {
				itemNode = list.Values[i]
			}
			out[i] = orderedValue(item, itemNode)
		}
		return out
	}
	return v
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Selection returns the attributes selected below the resolved field.
// Connection and page wrappers are skipped and _id selects the
// identifier.
func Selection(info graphql.ResolveInfo) serializer.AttributeFilter {
	f := serializer.AttributeFilter{}
	for _, field := range info.FieldASTs {
		collect(f, field.SelectionSet, info.Fragments)
	}
	return attributes(f)
}

// PayloadSelection returns the attributes selected under the resource
// field of a mutation payload
func PayloadSelection(info graphql.ResolveInfo, wrapField string) serializer.AttributeFilter {
	f := serializer.AttributeFilter{}
	for _, field := range info.FieldASTs {
		collect(f, field.SelectionSet, info.Fragments)
	}
	return attributes(f.Child(wrapField))
}

func collect(into serializer.AttributeFilter, set *ast.SelectionSet, fragments map[string]ast.Definition) {
	if set == nil {
		return
	}
	for _, selection := range set.Selections {
		switch s := selection.(type) {
		case *ast.Field:
			name := s.Name.Value
			if strings.HasPrefix(name, "__") {
				continue
			}
			if s.SelectionSet == nil {
				if _, ok := into[name]; !ok {
					into[name] = nil
				}
				continue
			}
			child := into[name]
			if child == nil {
				child = serializer.AttributeFilter{}
			}
			collect(child, s.SelectionSet, fragments)
			into[name] = child
		case *ast.InlineFragment:
			collect(into, s.SelectionSet, fragments)
		case *ast.FragmentSpread:
			if def, ok := fragments[s.Name.Value].(*ast.FragmentDefinition); ok {
				collect(into, def.SelectionSet, fragments)
			}
		}
	}
}

func attributes(f serializer.AttributeFilter) serializer.AttributeFilter {
	if f == nil {
		return nil
	}
	f = unwrap(f)
	out := serializer.AttributeFilter{}
	for name, child := range f {
		if name == "_id" {
			name = "id"
		}
		if existing, ok := out[name]; ok && existing != nil {
			continue
		}
		out[name] = attributes(child)
	}
	return out
}

var (
	connectionFields = map[string]bool{"edges": true, "pageInfo": true, "totalCount": true}
	pageFields       = map[string]bool{"collection": true, "paginationInfo": true}
)

// unwrap returns the node selection of a connection or the item selection
// of a page
func unwrap(f serializer.AttributeFilter) serializer.AttributeFilter {
	if only(f, connectionFields) {
		if node := f.Child("edges").Child("node"); node != nil {
			return node
		}
		return serializer.AttributeFilter{}
	}
	if only(f, pageFields) {
		if items := f.Child("collection"); items != nil {
			return items
		}
		return serializer.AttributeFilter{}
	}
	return f
}

func only(f serializer.AttributeFilter, allowed map[string]bool) bool {
	if len(f) == 0 {
		return false
	}
	for name := range f {
		if !allowed[name] {
			return false
		}
	}
	return true
}
