package pagination

import (
	"context"
	"fmt"

	"github.com/Foxprodev/core/internal/orm/query"
)

// PartialPaginator is a window over a collection whose total is unknown
type PartialPaginator interface {
	Items() []interface{}
	Count() int
	CurrentPage() int
	ItemsPerPage() int
	Offset() int
	HasNextPage() bool
	HasPreviousPage() bool
}

// Paginator is a window over a collection of known size
type Paginator interface {
	PartialPaginator
	LastPage() int
	TotalItems() int
}

// Hydrator turns fetched rows into items
type Hydrator func(ctx context.Context, rows []map[string]interface{}) ([]interface{}, error)

// ApplyWindow adds offset and limit to qb. A zero limit becomes the
// match-none marker since several drivers read LIMIT 0 as no limit.
func ApplyWindow(qb *query.QueryBuilder, offset, limit int) *query.QueryBuilder {
	if limit == 0 {
		return qb.MatchNone()
	}
	return qb.Offset(offset).Limit(limit)
}

type window struct {
	items  []interface{}
	offset int
	limit  int
}

func (w window) Items() []interface{} { return w.items }
func (w window) Count() int           { return len(w.items) }
func (w window) Offset() int          { return w.offset }
func (w window) ItemsPerPage() int    { return w.limit }

func (w window) CurrentPage() int {
	if w.limit <= 0 {
		return 1
	}
	return w.offset/w.limit + 1
}

func (w window) HasPreviousPage() bool { return w.offset > 0 }

// QueryPaginator is a page of a query result with its total count
type QueryPaginator struct {
	window
	total int
}

// NewQueryPaginator wraps already fetched items
func NewQueryPaginator(items []interface{}, offset, limit, total int) *QueryPaginator {
	return &QueryPaginator{window: window{items: items, offset: offset, limit: limit}, total: total}
}

func (p *QueryPaginator) TotalItems() int { return p.total }

func (p *QueryPaginator) LastPage() int {
	if p.limit <= 0 {
		return 1
	}
	last := (p.total + p.limit - 1) / p.limit
	if last < 1 {
		return 1
	}
	return last
}

func (p *QueryPaginator) HasNextPage() bool {
	return p.limit > 0 && p.offset+p.limit < p.total
}

// QueryPartialPaginator is a page of a query result without a total.
// One extra row is fetched to tell whether a next page exists.
type QueryPartialPaginator struct {
	window
	more bool
}

func (p *QueryPartialPaginator) HasNextPage() bool { return p.more }

// Paginate runs qb as one page: the total comes from a COUNT over a clone
// of qb, the items from qb with the window applied.
func Paginate(ctx context.Context, qb *query.QueryBuilder, offset, limit int, hydrate Hydrator) (*QueryPaginator, error) {
	total, err := qb.Clone().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	items, err := fetch(ctx, ApplyWindow(qb, offset, limit), hydrate)
	if err != nil {
		return nil, err
	}
	return NewQueryPaginator(items, offset, limit, total), nil
}

// PaginatePartial runs qb as one page without counting
func PaginatePartial(ctx context.Context, qb *query.QueryBuilder, offset, limit int, hydrate Hydrator) (*QueryPartialPaginator, error) {
	probe := limit
	if limit > 0 {
		probe = limit + 1
	}

	items, err := fetch(ctx, ApplyWindow(qb, offset, probe), hydrate)
	if err != nil {
		return nil, err
	}

	more := limit > 0 && len(items) > limit
	if more {
		items = items[:limit]
	}
	return &QueryPartialPaginator{window: window{items: items, offset: offset, limit: limit}, more: more}, nil
}

func fetch(ctx context.Context, qb *query.QueryBuilder, hydrate Hydrator) ([]interface{}, error) {
	rows, err := qb.All(ctx)
	if err != nil {
		return nil, err
	}
	if hydrate == nil {
		items := make([]interface{}, len(rows))
		for i, row := range rows {
			items[i] = row
		}
		return items, nil
	}
	return hydrate(ctx, rows)
}
