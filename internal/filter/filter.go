// Package filter narrows collection queries from request parameters.
//
// Filters are registered in a Locator under an id and referenced by id from
// the Filters facet of collection operations. The request parameters reach
// them as an ordered map, so the order clients give (for instance for
// order[...] tie-breaks) is the order applied to the query.
package filter

import (
	"strings"

	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// Parameter describes one request parameter understood by a filter
type Parameter struct {
	// Key is the request parameter, e.g. name, name[], order[title], price[gt]
	Key          string
	Property     string
	Type         string
	Required     bool
	IsCollection bool
	Strategy     string
}

// Filter applies request parameters to a collection query
type Filter interface {
	Apply(qb *query.QueryBuilder, resourceClass string, op resource.Operation, filters *ordered.Map) error
	Description(resourceClass string) []Parameter
}

// base holds the properties a filter is enabled for. An empty list enables
// every property of the queried resource.
type base struct {
	properties []resource.FilterProperty
	logger     *zap.Logger
}

func newBase(properties []resource.FilterProperty, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{properties: properties, logger: logger}
}

// strategy returns the configured strategy of property and whether the
// filter applies to it at all
func (b base) strategy(qb *query.QueryBuilder, property string) (string, bool) {
	if len(b.properties) == 0 {
		return "", qb.HasField(property)
	}
	for _, p := range b.properties {
		if p.Name == property {
			return p.Strategy, qb.HasField(property)
		}
	}
	return "", false
}

func (b base) ignore(property string, reason string, value interface{}) {
	b.logger.Info("invalid filter ignored",
		zap.String("property", property),
		zap.String("reason", reason),
		zap.Any("value", value),
	)
}

// values flattens a request value to a list of scalars
func values(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return t
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case *ordered.Map:
		return nil
	default:
		return []interface{}{t}
	}
}

func stringValue(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// identifierFromIri keeps the last path segment of IRI-looking values so
// relations can be filtered by IRI or by raw identifier
func identifierFromIri(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "/") {
		return v
	}
	return s[strings.LastIndex(s, "/")+1:]
}
