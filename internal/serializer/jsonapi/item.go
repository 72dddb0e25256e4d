// Package jsonapi writes and reads resources as JSON:API documents.
//
// Relations are written as resource linkage whose id is the IRI of the
// related item. Relations named by the include parameter are also written
// in the top-level included array, once per IRI.
package jsonapi

import (
	"context"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// MediaType is the official JSON:API media type
const MediaType = "application/vnd.api+json"

// component is an allowed property split into attribute or relationship
type component struct {
	attr       serializer.Attribute
	related    string
	collection bool
}

// relation holds the related objects of one relationship
type relation struct {
	property string
	wire     string
	class    string
	objects  []interface{}
}

// ItemNormalizer converts resources to and from JSON:API documents on top
// of the generic item normalizer
type ItemNormalizer struct {
	items  *serializer.ItemNormalizer
	logger *zap.Logger
}

// NewItemNormalizer wraps items
func NewItemNormalizer(items *serializer.ItemNormalizer, logger *zap.Logger) *ItemNormalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemNormalizer{items: items, logger: logger}
}

func (n *ItemNormalizer) Normalize(ctx context.Context, object interface{}, format string, sctx *serializer.Context) (interface{}, error) {
	sctx = sctx.Clone()
	if err := n.items.Prepare(ctx, object, sctx); err != nil {
		return nil, err
	}

	if sctx.Operation.Output() != "" {
		attributes, err := n.items.Normalize(ctx, object, format, sctx)
		if err != nil {
			return nil, err
		}
		return ordered.FromPairs("data", ordered.FromPairs(
			"type", n.items.ShortName(ctx, sctx.ResourceClass),
			"attributes", attributes,
		)), nil
	}

	doc, related, err := n.resourceObject(ctx, object, format, sctx)
	if err != nil {
		return nil, err
	}
	sctx.State.IncludedResources[sctx.IRI] = true

	out := ordered.FromPairs("data", doc)
	included, err := n.included(ctx, related, includePaths(sctx), format, sctx)
	if err != nil {
		return nil, err
	}
	if len(included) > 0 {
		out.Set("included", included)
	}
	return out, nil
}

// resourceObject builds {id, type, attributes, relationships} for an
// object whose context went through Prepare
func (n *ItemNormalizer) resourceObject(ctx context.Context, object interface{}, format string, sctx *serializer.Context) (*ordered.Map, []relation, error) {
	iri, err := n.items.Iri(ctx, object, sctx)
	if err != nil {
		return nil, nil, err
	}
	sctx.State.Resources[iri] = iri
	typ := n.items.ShortName(ctx, sctx.ResourceClass)

	allowed, err := n.items.Attributes(ctx, object, sctx, true)
	if err != nil {
		return nil, nil, err
	}
	fields, sparse := sctx.Fields[typ]

	attributes := ordered.New()
	relationships := ordered.New()
	var related []relation
	for _, c := range n.components(sctx, allowed) {
		name := n.wireName(c.attr.Name)
		if sparse && !contains(fields, name) {
			continue
		}

		if c.related == "" {
			value, err := n.items.NormalizeAttribute(ctx, object, c.attr, format, sctx)
			if err != nil {
				return nil, nil, err
			}
			if value == nil && sctx.SkipNullValues {
				continue
			}
			if name == "id" {
				name = "_id"
			}
			attributes.Set(name, value)
			continue
		}

		value, err := n.items.Value(object, c.attr)
		if err != nil {
			return nil, nil, err
		}
		objects := objectsOf(value)
		linkage, err := n.linkage(ctx, objects, c.collection, sctx)
		if err != nil {
			return nil, nil, err
		}
		relationships.Set(name, ordered.FromPairs("data", linkage))
		related = append(related, relation{property: c.attr.Name, wire: name, class: c.related, objects: objects})
	}

	doc := ordered.FromPairs("id", iri, "type", typ)
	if attributes.Len() > 0 {
		doc.Set("attributes", attributes)
	}
	if relationships.Len() > 0 {
		doc.Set("relationships", relationships)
	}
	return doc, related, nil
}

// components partitions allowed into attributes and relationships,
// memoized for the duration of the call
func (n *ItemNormalizer) components(sctx *serializer.Context, allowed []serializer.Attribute) []component {
	names := make([]string, len(allowed))
	for i, attr := range allowed {
		names[i] = attr.Name
	}
	key := "jsonapi_components|" + sctx.ResourceClass + "|" + sctx.Operation.Name() + "|" +
		strings.Join(sctx.Groups, ",") + "|" + strings.Join(names, ",")
	if cached, ok := sctx.State.Cache.Get(key); ok {
		return cached.([]component)
	}

	out := make([]component, 0, len(allowed))
	for _, attr := range allowed {
		c := component{attr: attr}
		if typ := attr.Metadata.Type(); typ != nil {
			c.related = n.items.RelationClass(typ)
			c.collection = typ.IsCollection()
		}
		out = append(out, c)
	}
	sctx.State.Cache.Set(key, out)
	return out
}

// linkage returns {type, id} for one object, or a list for to-many
// relationships
func (n *ItemNormalizer) linkage(ctx context.Context, objects []interface{}, collection bool, sctx *serializer.Context) (interface{}, error) {
	out := make([]interface{}, 0, len(objects))
	for _, object := range objects {
		iri, err := n.items.Iris().GetIriFromItem(ctx, object)
		if err != nil {
			return nil, err
		}
		resourceClass, err := n.items.Registry().GetResourceClass(object, "")
		if err != nil {
			return nil, err
		}
		sctx.State.Resources[iri] = iri
		out = append(out, ordered.FromPairs("type", n.items.ShortName(ctx, resourceClass), "id", iri))
	}
	if collection {
		return out, nil
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// included returns the resource objects reachable through paths that are
// not in the document yet
func (n *ItemNormalizer) included(ctx context.Context, related []relation, paths serializer.AttributeFilter, format string, sctx *serializer.Context) ([]interface{}, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	var out []interface{}
	for _, rel := range related {
		if !paths.Allows(rel.wire) {
			continue
		}
		for _, object := range rel.objects {
			child := sctx.Child(rel.property, rel.class)
			child.Attributes = nil
			if err := n.items.Prepare(ctx, object, child); err != nil {
				return nil, err
			}
			doc, nested, err := n.resourceObject(ctx, object, format, child)
			if err != nil {
				return nil, err
			}
			if !sctx.State.IncludedResources[child.IRI] {
				sctx.State.IncludedResources[child.IRI] = true
				out = append(out, doc)
			}
			if paths.HasChildren(rel.wire) {
				more, err := n.included(ctx, nested, paths.Child(rel.wire), format, child)
				if err != nil {
					return nil, err
				}
				out = append(out, more...)
			}
		}
	}
	return out, nil
}

// Denormalize merges the attributes and relationships of a JSON:API
// document into one object and hands it to the generic denormalizer
func (n *ItemNormalizer) Denormalize(ctx context.Context, data interface{}, resourceClass, format string, sctx *serializer.Context) (interface{}, error) {
	doc, ok := serializer.AsOrderedMap(data)
	if !ok {
		return nil, apierr.NewUnexpectedValue("Expected a JSON:API document, %s given.", apierr.Describe(data))
	}
	raw, _ := doc.Get("data")
	resourceObject, ok := serializer.AsOrderedMap(raw)
	if !ok {
		return nil, apierr.NewUnexpectedValue("The JSON:API document must contain a \"data\" object.")
	}

	flat := ordered.New()
	if raw, ok := resourceObject.Get("attributes"); ok {
		attributes, ok := serializer.AsOrderedMap(raw)
		if !ok {
			return nil, apierr.NewUnexpectedValue("The \"attributes\" member must be an object.")
		}
		attributes.Range(func(key string, value interface{}) bool {
			if key == "_id" {
				key = "id"
			}
			flat.Set(key, value)
			return true
		})
	}

	if raw, ok := resourceObject.Get("relationships"); ok {
		relationships, ok := serializer.AsOrderedMap(raw)
		if !ok {
			return nil, apierr.NewUnexpectedValue("The \"relationships\" member must be an object.")
		}
		for _, key := range relationships.Keys() {
			value, _ := relationships.Get(key)
			ids, err := linkageIDs(key, value)
			if err != nil {
				return nil, err
			}
			flat.Set(key, ids)
		}
	}

	return n.items.Denormalize(ctx, flat, resourceClass, format, sctx)
}

// linkageIDs returns the IRI, or list of IRIs, of a relationship object
func linkageIDs(name string, value interface{}) (interface{}, error) {
	rel, ok := serializer.AsOrderedMap(value)
	if !ok {
		return nil, apierr.NewUnexpectedValue("The relationship %q must be an object with a \"data\" member.", name)
	}
	data, ok := rel.Get("data")
	if !ok {
		return nil, apierr.NewUnexpectedValue("The relationship %q must be an object with a \"data\" member.", name)
	}
	if data == nil {
		return nil, nil
	}
	if list, ok := data.([]interface{}); ok {
		out := make([]interface{}, 0, len(list))
		for _, item := range list {
			id, err := linkageID(name, item)
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
		return out, nil
	}
	return linkageID(name, data)
}

func linkageID(name string, value interface{}) (interface{}, error) {
	linkage, ok := serializer.AsOrderedMap(value)
	if ok {
		id, hasID := linkage.Get("id")
		_, hasType := linkage.Get("type")
		if hasID && hasType {
			if _, isString := id.(string); isString {
				return id, nil
			}
			return nil, apierr.NewTypeMismatch("id", "string", id)
		}
	}
	return nil, apierr.NewUnexpectedValue("Only resource linkage is supported for the relationship %q: expected an object with \"id\" and \"type\" members.", name)
}

func (n *ItemNormalizer) wireName(property string) string {
	if nc := n.items.NameConverter(); nc != nil {
		return nc.Normalize(property)
	}
	return property
}

func includePaths(sctx *serializer.Context) serializer.AttributeFilter {
	if len(sctx.Include) == 0 {
		return nil
	}
	return serializer.NewAttributeFilter(sctx.Include...)
}

func objectsOf(value interface{}) []interface{} {
	if value == nil {
		return nil
	}
	if serializer.IsCollection(value) {
		var out []interface{}
		for _, item := range serializer.Items(value) {
			if !serializer.IsNil(item) {
				out = append(out, item)
			}
		}
		return out
	}
	if serializer.IsNil(value) {
		return nil
	}
	return []interface{}{value}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
