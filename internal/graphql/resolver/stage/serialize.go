package stage

import (
	"context"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/pagination"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
	ustrings "github.com/Foxprodev/core/internal/util/strings"
)

// SerializeStage turns the resolved object into the data of the field:
// an item, a connection or page of items, or a mutation payload
type SerializeStage struct {
	normalizer serializer.Normalizer
	pagination *pagination.Pagination
}

// NewSerializeStage creates the stage
func NewSerializeStage(normalizer serializer.Normalizer, p *pagination.Pagination) *SerializeStage {
	return &SerializeStage{normalizer: normalizer, pagination: p}
}

// Apply normalizes itemOrCollection for op
func (s *SerializeStage) Apply(ctx context.Context, itemOrCollection interface{}, resourceClass string, op resource.Operation, rctx Context) (interface{}, error) {
	if !op.CanSerialize() {
		return s.empty(resourceClass, op, rctx), nil
	}

	sctx := &serializer.Context{
		ResourceClass:  resourceClass,
		Operation:      op,
		Groups:         op.NormalizationContext().Groups,
		SkipNullValues: op.NormalizationContext().SkipNullValues,
		Attributes:     rctx.Attributes,
	}

	var data interface{}
	switch {
	case rctx.IsCollection:
		collection, err := s.collection(ctx, itemOrCollection, op, rctx, sctx)
		if err != nil {
			return nil, err
		}
		data = collection
	case rctx.IsMutation && op.Name() == resource.GraphQLDelete:
		data = map[string]interface{}{"id": rctx.Identifier()}
	case !serializer.IsNil(itemOrCollection):
		item, err := s.normalize(ctx, itemOrCollection, sctx)
		if err != nil {
			return nil, err
		}
		data = item
	}

	if rctx.IsMutation || rctx.IsSubscription {
		return s.payload(resourceClass, op, rctx, data), nil
	}
	return data, nil
}

func (s *SerializeStage) normalize(ctx context.Context, object interface{}, sctx *serializer.Context) (interface{}, error) {
	out, err := s.normalizer.Normalize(ctx, object, serializer.FormatGraphQL, sctx)
	if err != nil {
		return nil, err
	}
	return data(out), nil
}

func (s *SerializeStage) collection(ctx context.Context, collection interface{}, op resource.Operation, rctx Context, sctx *serializer.Context) (interface{}, error) {
	if !s.pagination.IsGraphQLEnabled(op) {
		items := serializer.Items(collection)
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			v, err := s.normalize(ctx, item, sctx)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	if s.pagination.GraphQLType(op) == pagination.TypePage {
		return s.page(ctx, collection, sctx)
	}
	return s.connection(ctx, collection, rctx, sctx)
}

// connection renders a cursor paginated collection:
// {totalCount, edges: [{node, cursor}], pageInfo}
func (s *SerializeStage) connection(ctx context.Context, collection interface{}, rctx Context, sctx *serializer.Context) (interface{}, error) {
	paginator, ok := collection.(pagination.PartialPaginator)
	if !ok {
		return nil, apierr.Configuration("Collection returned by the collection data provider must implement PartialPaginator for cursor based pagination.")
	}
	for _, name := range []string{"after", "before"} {
		if raw, ok := rctx.Arg(name); ok && raw != nil {
			if _, valid := pagination.DecodeCursor(raw); !valid {
				return nil, apierr.NewUnexpectedValue("Cursor %v is invalid.", raw)
			}
		}
	}

	full, isFull := collection.(pagination.Paginator)
	if !isFull && (hasArg(rctx, "before") || hasArg(rctx, "last")) {
		return nil, apierr.Configuration("Collection returned by the collection data provider must implement Paginator when using before or last.")
	}

	out := defaultConnection()
	pageInfo := out["pageInfo"].(map[string]interface{})
	offset := paginator.Offset()
	items := paginator.Items()

	total := 1
	if isFull {
		total = full.TotalItems()
		out["totalCount"] = total
	}
	if total > 0 {
		end := offset + len(items) - 1
		if end < 0 {
			end = 0
		}
		pageInfo["startCursor"] = pagination.EncodeCursor(offset)
		pageInfo["endCursor"] = pagination.EncodeCursor(end)
		pageInfo["hasPreviousPage"] = offset > 0
		pageInfo["hasNextPage"] = paginator.HasNextPage()
	}

	edges := make([]interface{}, 0, len(items))
	for i, item := range items {
		node, err := s.normalize(ctx, item, sctx)
		if err != nil {
			return nil, err
		}
		edges = append(edges, map[string]interface{}{
			"node":   node,
			"cursor": pagination.EncodeCursor(offset + i),
		})
	}
	out["edges"] = edges
	return out, nil
}

// page renders a page paginated collection: {collection, paginationInfo}
func (s *SerializeStage) page(ctx context.Context, collection interface{}, sctx *serializer.Context) (interface{}, error) {
	paginator, ok := collection.(pagination.PartialPaginator)
	if !ok {
		return nil, apierr.Configuration("Collection returned by the collection data provider must implement PartialPaginator for page based pagination.")
	}

	out := defaultPage()
	info := out["paginationInfo"].(map[string]interface{})
	info["itemsPerPage"] = paginator.ItemsPerPage()
	info["hasNextPage"] = paginator.HasNextPage()
	if full, ok := collection.(pagination.Paginator); ok {
		info["totalCount"] = full.TotalItems()
		info["lastPage"] = full.LastPage()
	}

	items := paginator.Items()
	list := make([]interface{}, 0, len(items))
	for _, item := range items {
		v, err := s.normalize(ctx, item, sctx)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	out["collection"] = list
	return out, nil
}

// payload wraps mutation and subscription data under the lower camel short
// name of the resource, echoing clientMutationId
func (s *SerializeStage) payload(resourceClass string, op resource.Operation, rctx Context, data interface{}) interface{} {
	out := map[string]interface{}{}
	if op.Name() == resource.GraphQLDelete {
		if m, ok := data.(map[string]interface{}); ok {
			for k, v := range m {
				out[k] = v
			}
		} else {
			out["id"] = nil
		}
	} else {
		out[ustrings.LcFirst(shortName(op, resourceClass))] = data
	}
	if id := rctx.ClientMutationID(); id != nil {
		out["clientMutationId"] = id
	}
	return out
}

// empty is the data of operations that do not serialize
func (s *SerializeStage) empty(resourceClass string, op resource.Operation, rctx Context) interface{} {
	switch {
	case rctx.IsCollection:
		if !s.pagination.IsGraphQLEnabled(op) {
			return []interface{}{}
		}
		if s.pagination.GraphQLType(op) == pagination.TypePage {
			return defaultPage()
		}
		return defaultConnection()
	case rctx.IsMutation || rctx.IsSubscription:
		return s.payload(resourceClass, op, rctx, nil)
	}
	return nil
}

func defaultConnection() map[string]interface{} {
	return map[string]interface{}{
		"totalCount": 0,
		"edges":      []interface{}{},
		"pageInfo": map[string]interface{}{
			"startCursor":     nil,
			"endCursor":       nil,
			"hasNextPage":     false,
			"hasPreviousPage": false,
		},
	}
}

func defaultPage() map[string]interface{} {
	return map[string]interface{}{
		"collection": []interface{}{},
		"paginationInfo": map[string]interface{}{
			"itemsPerPage": 0,
			"totalCount":   0,
			"lastPage":     0,
			"hasNextPage":  false,
		},
	}
}

func hasArg(rctx Context, name string) bool {
	v, ok := rctx.Arg(name)
	return ok && v != nil
}

// data converts normalized ordered maps into the plain maps the GraphQL
// executor reads fields from. Item identifiers stay ordered.
func data(v interface{}) interface{} {
	switch t := v.(type) {
	case *ordered.Map:
		out := make(map[string]interface{}, t.Len())
		t.Range(func(k string, value interface{}) bool {
			if k == serializer.ItemIdentifiersKey {
				out[k] = value
				return true
			}
			out[k] = data(value)
			return true
		})
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = data(item)
		}
		return out
	}
	return v
}
