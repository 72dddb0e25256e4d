package resource

import (
	"context"
	"strings"

	"github.com/Foxprodev/core/internal/class"
	ustrings "github.com/Foxprodev/core/internal/util/strings"
)

// FilterDeclaration is a filter declared with `filter` struct tags:
//
//	Name   string `filter:"search=partial,order"`
//	Active bool   `filter:"boolean"`
//
// Every tag of one type on one class yields a single declaration listing
// the tagged properties in field order.
type FilterDeclaration struct {
	ID         string
	Type       string
	Class      string
	Properties []FilterProperty
}

// FilterProperty is one property of a filter declaration with its strategy
type FilterProperty struct {
	Name     string
	Strategy string
}

// FilterID returns the identifier of the filter of filterType declared on resourceClass
func FilterID(resourceClass, filterType string) string {
	return "annotated_" + ustrings.ToSnakeCase(class.ShortName(resourceClass)) + "_" + filterType
}

// FilterDeclarations reads the filter tags of a registered class
func FilterDeclarations(registry *class.Registry, resourceClass string) []FilterDeclaration {
	t, err := registry.Type(resourceClass)
	if err != nil {
		return nil
	}

	var out []FilterDeclaration
	index := make(map[string]int)
	for _, field := range class.Fields(t) {
		tag, ok := field.Tag.Lookup("filter")
		if !ok {
			continue
		}
		for _, entry := range strings.Split(tag, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			filterType, strategy, _ := strings.Cut(entry, "=")
			i, seen := index[filterType]
			if !seen {
				i = len(out)
				index[filterType] = i
				out = append(out, FilterDeclaration{
					ID:    FilterID(resourceClass, filterType),
					Type:  filterType,
					Class: resourceClass,
				})
			}
			out[i].Properties = append(out[i].Properties, FilterProperty{Name: field.Name, Strategy: strategy})
		}
	}
	return out
}

// FiltersFactory adds the filters declared with struct tags to the
// collection operations of a resource
type FiltersFactory struct {
	inner    CollectionFactory
	registry *class.Registry
}

// NewFiltersFactory decorates inner
func NewFiltersFactory(inner CollectionFactory, registry *class.Registry) *FiltersFactory {
	return &FiltersFactory{inner: inner, registry: registry}
}

func (f *FiltersFactory) Create(ctx context.Context, resourceClass string) (MetadataCollection, error) {
	c, err := f.inner.Create(ctx, resourceClass)
	if err != nil {
		return c, err
	}

	decls := FilterDeclarations(f.registry, resourceClass)
	if len(decls) == 0 {
		return c, nil
	}
	ids := make([]string, 0, len(decls))
	for _, d := range decls {
		ids = append(ids, d.ID)
	}

	out := make([]Metadata, 0, len(c.Metadata))
	for _, md := range c.Metadata {
		md.s.Operations = withFilters(md.Operations(), ids)
		md.s.GraphQLOperations = withFilters(md.GraphQLOperations(), ids)
		out = append(out, md)
	}
	c.Metadata = out
	return c, nil
}

func withFilters(ops Operations, ids []string) Operations {
	all := ops.All()
	for i, op := range all {
		if !op.IsCollection() {
			continue
		}
		filters := op.Filters()
		for _, id := range ids {
			if !contains(filters, id) {
				filters = append(filters, id)
			}
		}
		all[i] = op.WithFilters(filters...)
	}
	return NewOperations(all...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
