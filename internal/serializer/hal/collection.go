package hal

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Foxprodev/core/internal/pagination"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// CollectionNormalizer writes {_links, totalItems, itemsPerPage, _embedded.item}
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
	members := make([]interface{}, 0, len(objects))
	for _, object := range objects {
		itemCtx := *sctx
		itemCtx.IRI = ""
		doc, err := c.items.Normalize(ctx, object, format, &itemCtx)
		if err != nil {
			return nil, err
		}
		members = append(members, doc)
	}

	out := ordered.New()
	if sctx.RequestURI != "" {
		out.Set("_links", pageLinks(sctx.RequestURI, collection))
	}
	switch p := collection.(type) {
	case pagination.Paginator:
		out.Set("totalItems", p.TotalItems())
		out.Set("itemsPerPage", p.ItemsPerPage())
	case pagination.PartialPaginator:
		out.Set("itemsPerPage", p.ItemsPerPage())
	default:
		out.Set("totalItems", len(objects))
	}
	out.Set("_embedded", ordered.FromPairs("item", members))
	return out, nil
}

// pageLinks writes self, first, last, prev and next with the page parameter
func pageLinks(requestURI string, collection interface{}) *ordered.Map {
	links := ordered.FromPairs("self", href(requestURI))
	p, ok := collection.(pagination.PartialPaginator)
	if !ok {
		return links
	}
	page := p.CurrentPage()
	links.Set("self", href(pageURL(requestURI, page)))
	links.Set("first", href(pageURL(requestURI, 1)))
	if full, ok := p.(pagination.Paginator); ok {
		links.Set("last", href(pageURL(requestURI, full.LastPage())))
	}
	if p.HasPreviousPage() && page > 1 {
		links.Set("prev", href(pageURL(requestURI, page-1)))
	}
	if p.HasNextPage() {
		links.Set("next", href(pageURL(requestURI, page+1)))
	}
	return links
}

func pageURL(requestURI string, page int) string {
	u, err := url.Parse(requestURI)
	if err != nil {
		return requestURI
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
