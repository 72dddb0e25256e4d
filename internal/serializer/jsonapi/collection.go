package jsonapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	ddjsonapi "github.com/DataDog/jsonapi"
	"github.com/Foxprodev/core/internal/pagination"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// CollectionNormalizer writes collections as {links, meta, data, included}
type CollectionNormalizer struct {
	items *ItemNormalizer
}

// NewCollectionNormalizer normalizes each member with items
func NewCollectionNormalizer(items *ItemNormalizer) *CollectionNormalizer {
	return &CollectionNormalizer{items: items}
}

func (c *CollectionNormalizer) Normalize(ctx context.Context, collection interface{}, format string, sctx *serializer.Context) (interface{}, error) {
	sctx = sctx.Clone()
	objects := serializer.Items(collection)

	data := make([]interface{}, 0, len(objects))
	var related []relation
	contexts := make([]*serializer.Context, 0, len(objects))
	for _, object := range objects {
		itemCtx := *sctx
		itemCtx.IRI = ""
		if err := c.items.items.Prepare(ctx, object, &itemCtx); err != nil {
			return nil, err
		}
		doc, rel, err := c.items.resourceObject(ctx, object, format, &itemCtx)
		if err != nil {
			return nil, err
		}
		sctx.State.IncludedResources[itemCtx.IRI] = true
		data = append(data, doc)
		related = append(related, rel...)
		contexts = append(contexts, &itemCtx)
	}

	var included []interface{}
	if paths := includePaths(sctx); paths != nil && len(contexts) > 0 {
		more, err := c.items.included(ctx, related, paths, format, contexts[0])
		if err != nil {
			return nil, err
		}
		included = more
	}

	out := ordered.New()
	if links := collectionLinks(sctx.RequestURI, collection); links != nil {
		out.Set("links", links)
	}
	out.Set("meta", collectionMeta(collection, len(objects)))
	out.Set("data", data)
	if len(included) > 0 {
		out.Set("included", included)
	}
	return out, nil
}

func collectionMeta(collection interface{}, count int) *ordered.Map {
	meta := ordered.New()
	switch p := collection.(type) {
	case pagination.Paginator:
		meta.Set("totalItems", p.TotalItems())
		meta.Set("itemsPerPage", p.ItemsPerPage())
		meta.Set("currentPage", p.CurrentPage())
	case pagination.PartialPaginator:
		meta.Set("itemsPerPage", p.ItemsPerPage())
		meta.Set("currentPage", p.CurrentPage())
	default:
		meta.Set("totalItems", count)
	}
	return meta
}

// collectionLinks builds self, first, last, prev and next links with
// page[limit] and page[offset] parameters
func collectionLinks(requestURI string, collection interface{}) *ddjsonapi.Link {
	if requestURI == "" {
		return nil
	}
	p, ok := collection.(pagination.PartialPaginator)
	if !ok {
		return &ddjsonapi.Link{Self: requestURI}
	}

	perPage := p.ItemsPerPage()
	page := p.CurrentPage()
	links := &ddjsonapi.Link{
		Self:  buildPageURL(requestURI, page, perPage),
		First: buildPageURL(requestURI, 1, perPage),
	}
	if full, ok := p.(pagination.Paginator); ok {
		links.Last = buildPageURL(requestURI, full.LastPage(), perPage)
	}
	if p.HasPreviousPage() && page > 1 {
		links.Prev = buildPageURL(requestURI, page-1, perPage)
	}
	if p.HasNextPage() {
		links.Next = buildPageURL(requestURI, page+1, perPage)
	}
	return links
}

func buildPageURL(baseURL string, page, perPage int) string {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Sprintf("%s?page[limit]=%d&page[offset]=%d", baseURL, perPage, offset)
	}
	q := u.Query()
	q.Set("page[limit]", strconv.Itoa(perPage))
	q.Set("page[offset]", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	return u.String()
}
