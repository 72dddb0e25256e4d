// Package hal writes resources as HAL documents: links under _links,
// embedded relations under _embedded.
package hal

import (
	"context"

	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// MediaType is the HAL media type
const MediaType = "application/hal+json"

// ItemNormalizer writes one resource
type ItemNormalizer struct {
	items *serializer.ItemNormalizer
}

// NewItemNormalizer wraps items
func NewItemNormalizer(items *serializer.ItemNormalizer) *ItemNormalizer {
	return &ItemNormalizer{items: items}
}

func (n *ItemNormalizer) Normalize(ctx context.Context, object interface{}, format string, sctx *serializer.Context) (interface{}, error) {
	sctx = sctx.Clone()
	if err := n.items.Prepare(ctx, object, sctx); err != nil {
		return nil, err
	}
	if sctx.Operation.Output() != "" {
		return n.items.Normalize(ctx, object, format, sctx)
	}

	iri, err := n.items.Iri(ctx, object, sctx)
	if err != nil {
		return nil, err
	}
	sctx.State.Resources[iri] = iri

	attributes, err := n.items.Attributes(ctx, object, sctx, true)
	if err != nil {
		return nil, err
	}

	links := ordered.FromPairs("self", href(iri))
	embedded := ordered.New()
	data := ordered.New()
	for _, attr := range attributes {
		name := attr.Name
		if nc := n.items.NameConverter(); nc != nil {
			name = nc.Normalize(attr.Name)
		}

		typ := attr.Metadata.Type()
		related := n.items.RelationClass(typ)
		if related == "" {
			value, err := n.items.NormalizeAttribute(ctx, object, attr, format, sctx)
			if err != nil {
				return nil, err
			}
			if value == nil && sctx.SkipNullValues {
				continue
			}
			data.Set(name, value)
			continue
		}

		value, err := n.items.Value(object, attr)
		if err != nil {
			return nil, err
		}
		collection := typ.IsCollection()
		var objects []interface{}
		if collection {
			objects = serializer.Items(value)
		} else if !serializer.IsNil(value) {
			objects = []interface{}{value}
		}

		relLinks := make([]interface{}, 0, len(objects))
		relEmbedded := make([]interface{}, 0, len(objects))
		for _, item := range objects {
			if serializer.IsNil(item) {
				continue
			}
			relIri, err := n.items.Iris().GetIriFromItem(ctx, item)
			if err != nil {
				return nil, err
			}
			sctx.State.Resources[relIri] = relIri
			relLinks = append(relLinks, href(relIri))

			if attr.Metadata.IsReadableLink() {
				child := sctx.Child(attr.Name, "")
				child.IRI = relIri
				doc, err := n.Normalize(ctx, item, format, child)
				if err != nil {
					return nil, err
				}
				relEmbedded = append(relEmbedded, doc)
			}
		}

		switch {
		case collection:
			links.Set(name, relLinks)
		case len(relLinks) == 1:
			links.Set(name, relLinks[0])
		}
		if attr.Metadata.IsReadableLink() {
			switch {
			case collection:
				embedded.Set(name, relEmbedded)
			case len(relEmbedded) == 1:
				embedded.Set(name, relEmbedded[0])
			}
		}
	}

	out := ordered.FromPairs("_links", links)
	if embedded.Len() > 0 {
		out.Set("_embedded", embedded)
	}
	data.Range(func(key string, value interface{}) bool {
		out.Set(key, value)
		return true
	})
	return out, nil
}

func href(iri string) *ordered.Map {
	return ordered.FromPairs("href", iri)
}
