// Package pagination computes collection windows from operation
// configuration and request parameters, and runs paginated queries.
package pagination

import (
	"fmt"
	"strconv"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/cli/config"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// GraphQL pagination types
const (
	TypeCursor = "cursor"
	TypePage   = "page"
)

// Options are the application wide defaults. Operations override them
// through their pagination facets.
type Options struct {
	Enabled                   bool
	ClientEnabled             bool
	ClientItemsPerPage        bool
	ItemsPerPage              int
	MaximumItemsPerPage       int // 0 means no maximum
	PageParameterName         string
	EnabledParameterName      string
	ItemsPerPageParameterName string
	Partial                   bool
	ClientPartial             bool
	PartialParameterName      string
}

// DefaultOptions returns the stock pagination options
func DefaultOptions() Options {
	return Options{
		Enabled:                   true,
		ItemsPerPage:              30,
		PageParameterName:         "page",
		EnabledParameterName:      "pagination",
		ItemsPerPageParameterName: "itemsPerPage",
		PartialParameterName:      "partial",
	}
}

// OptionsFromConfig maps the pagination section of the configuration
func OptionsFromConfig(cfg config.PaginationConfig) Options {
	o := Options{
		Enabled:                   cfg.Enabled,
		ClientEnabled:             cfg.ClientEnabled,
		ClientItemsPerPage:        cfg.ClientItemsPerPage,
		ItemsPerPage:              cfg.ItemsPerPage,
		MaximumItemsPerPage:       cfg.MaximumItemsPerPage,
		PageParameterName:         cfg.PageParameterName,
		EnabledParameterName:      cfg.EnabledParameterName,
		ItemsPerPageParameterName: cfg.ItemsPerPageParameterName,
		Partial:                   cfg.Partial,
		ClientPartial:             cfg.ClientPartial,
		PartialParameterName:      cfg.PartialParameterName,
	}
	defaults := DefaultOptions()
	if o.PageParameterName == "" {
		o.PageParameterName = defaults.PageParameterName
	}
	if o.EnabledParameterName == "" {
		o.EnabledParameterName = defaults.EnabledParameterName
	}
	if o.ItemsPerPageParameterName == "" {
		o.ItemsPerPageParameterName = defaults.ItemsPerPageParameterName
	}
	if o.PartialParameterName == "" {
		o.PartialParameterName = defaults.PartialParameterName
	}
	return o
}

// Context carries the request state pagination reads
type Context struct {
	// Filters are the request parameters (or GraphQL arguments)
	Filters *ordered.Map
	// GraphQL enables the first/last/before/after arguments
	GraphQL bool
	// Count is the total number of items, needed to paginate backwards
	// with last and no before cursor
	Count int
}

func (c Context) param(name string) (interface{}, bool) {
	if c.Filters == nil {
		return nil, false
	}
	v, ok := c.Filters.Get(name)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Pagination resolves pages, offsets and limits
type Pagination struct {
	options Options
}

// New creates a Pagination with options
func New(options Options) *Pagination {
	return &Pagination{options: options}
}

// Options returns the application wide options
func (p *Pagination) Options() Options { return p.options }

// Page returns the requested page, 1 by default
func (p *Pagination) Page(ctx Context) (int, error) {
	raw, ok := ctx.param(p.options.PageParameterName)
	if !ok {
		return 1, nil
	}
	page, err := toInt(raw)
	if err != nil || page < 1 {
		return 0, apierr.InvalidArgument("Page should not be less than 1")
	}
	return page, nil
}

// Limit returns the number of items per page
func (p *Pagination) Limit(op resource.Operation, ctx Context) (int, error) {
	limit := p.options.ItemsPerPage
	if v := op.PaginationItemsPerPage(); v != nil {
		limit = *v
	}
	clientLimit := p.options.ClientItemsPerPage
	if v := op.PaginationClientItemsPerPage(); v != nil {
		clientLimit = *v
	}

	if ctx.GraphQL {
		if raw, ok := ctx.param("first"); ok {
			if n, err := toInt(raw); err == nil {
				limit = n
			}
		}
		if raw, ok := ctx.param("last"); ok {
			if n, err := toInt(raw); err == nil {
				limit = n
			}
		}
		if raw, ok := ctx.param("before"); ok {
			if before, _ := DecodeCursor(raw); before-limit < 0 {
				limit = before
			}
		}
	}

	if clientLimit {
		if raw, ok := ctx.param(p.options.ItemsPerPageParameterName); ok {
			n, err := toInt(raw)
			if err != nil {
				return 0, apierr.InvalidArgument("Items per page should be an integer")
			}
			limit = n
		}
	}

	if limit < 0 {
		return 0, apierr.InvalidArgument("Limit should not be less than 0")
	}

	maximum := p.options.MaximumItemsPerPage
	if v := op.PaginationMaximumItemsPerPage(); v != nil {
		maximum = *v
	}
	if maximum > 0 && limit > maximum {
		limit = maximum
	}
	return limit, nil
}

// Offset returns the number of items to skip
func (p *Pagination) Offset(op resource.Operation, ctx Context) (int, error) {
	limit, err := p.Limit(op, ctx)
	if err != nil {
		return 0, err
	}
	return p.offset(ctx, limit)
}

func (p *Pagination) offset(ctx Context, limit int) (int, error) {
	if ctx.GraphQL {
		if raw, ok := ctx.param("after"); ok {
			after, ok := DecodeCursor(raw)
			if !ok {
				return 0, nil
			}
			return after + 1, nil
		}
		if raw, ok := ctx.param("before"); ok {
			before, _ := DecodeCursor(raw)
			return nonNegative(before - limit), nil
		}
		if raw, ok := ctx.param("last"); ok {
			last, err := toInt(raw)
			if err != nil {
				return 0, apierr.InvalidArgument("last should be an integer")
			}
			return nonNegative(ctx.Count - last), nil
		}
	}

	page, err := p.Page(ctx)
	if err != nil {
		return 0, err
	}
	return (page - 1) * limit, nil
}

// Pagination returns the page, offset and limit of a request
func (p *Pagination) Pagination(op resource.Operation, ctx Context) (page, offset, limit int, err error) {
	if page, err = p.Page(ctx); err != nil {
		return 0, 0, 0, err
	}
	if limit, err = p.Limit(op, ctx); err != nil {
		return 0, 0, 0, err
	}
	if limit == 0 && page > 1 {
		return 0, 0, 0, apierr.InvalidArgument("Page should not be greater than 1 if limit is equal to 0")
	}
	if offset, err = p.offset(ctx, limit); err != nil {
		return 0, 0, 0, err
	}
	return page, offset, limit, nil
}

// IsEnabled reports whether the collection is paginated. Clients may
// toggle it with the enabled parameter when the operation allows it.
func (p *Pagination) IsEnabled(op resource.Operation, ctx Context) bool {
	enabled := p.options.Enabled
	if v := op.PaginationEnabled(); v != nil {
		enabled = *v
	}
	clientEnabled := p.options.ClientEnabled
	if v := op.PaginationClientEnabled(); v != nil {
		clientEnabled = *v
	}
	return p.clientToggle(clientEnabled, p.options.EnabledParameterName, enabled, ctx)
}

// IsGraphQLEnabled reports whether a GraphQL collection is paginated
func (p *Pagination) IsGraphQLEnabled(op resource.Operation) bool {
	if v := op.PaginationEnabled(); v != nil {
		return *v
	}
	return p.options.Enabled
}

// IsPartialEnabled reports whether the total count is skipped
func (p *Pagination) IsPartialEnabled(op resource.Operation, ctx Context) bool {
	partial := p.options.Partial
	if v := op.PaginationPartial(); v != nil {
		partial = *v
	}
	clientPartial := p.options.ClientPartial
	if v := op.PaginationClientPartial(); v != nil {
		clientPartial = *v
	}
	return p.clientToggle(clientPartial, p.options.PartialParameterName, partial, ctx)
}

// GraphQLType returns the GraphQL pagination type of op, cursor by default
func (p *Pagination) GraphQLType(op resource.Operation) string {
	if op.PaginationType() == TypePage {
		return TypePage
	}
	return TypeCursor
}

func (p *Pagination) clientToggle(allowed bool, parameter string, fallback bool, ctx Context) bool {
	if !allowed {
		return fallback
	}
	raw, ok := ctx.param(parameter)
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch v {
		case "1", "true", "on", "yes":
			return true
		}
	}
	return false
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
