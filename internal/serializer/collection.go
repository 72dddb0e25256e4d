package serializer

import (
	"context"
	"reflect"

	"github.com/Foxprodev/core/internal/pagination"
)

// CollectionNormalizer writes a collection as a plain array of items
type CollectionNormalizer struct {
	items Normalizer
}

// NewCollectionNormalizer normalizes each item with items
func NewCollectionNormalizer(items Normalizer) *CollectionNormalizer {
	return &CollectionNormalizer{items: items}
}

func (n *CollectionNormalizer) Normalize(ctx context.Context, collection interface{}, format string, sctx *Context) (interface{}, error) {
	sctx = sctx.Clone()
	items := Items(collection)
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		itemCtx := *sctx
		itemCtx.IRI = ""
		v, err := n.items.Normalize(ctx, item, format, &itemCtx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// IsCollection reports whether data is a slice, an array or a paginator
func IsCollection(data interface{}) bool {
	switch data.(type) {
	case pagination.PartialPaginator, []interface{}:
		return true
	}
	rv := reflect.ValueOf(data)
	return rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 || rv.Kind() == reflect.Array
}

// Items returns the elements of a collection
func Items(collection interface{}) []interface{} {
	switch c := collection.(type) {
	case pagination.PartialPaginator:
		return c.Items()
	case []interface{}:
		return c
	}
	rv := reflect.ValueOf(collection)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
