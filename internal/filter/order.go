package filter

import (
	"strings"

	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// DefaultOrderParameterName is the request parameter read by OrderFilter
const DefaultOrderParameterName = "order"

// OrderFilter sorts the collection: ?order[title]=asc&order[id]=desc.
// Clauses are applied in request order. A property strategy is the
// direction used when the client gives none.
type OrderFilter struct {
	base
	parameterName string
}

// NewOrderFilter creates an order filter reading parameterName (order when empty)
func NewOrderFilter(properties []resource.FilterProperty, parameterName string, logger *zap.Logger) *OrderFilter {
	if parameterName == "" {
		parameterName = DefaultOrderParameterName
	}
	return &OrderFilter{base: newBase(properties, logger), parameterName: parameterName}
}

// ParameterName returns the request parameter holding the clauses
func (f *OrderFilter) ParameterName() string { return f.parameterName }

func (f *OrderFilter) Apply(qb *query.QueryBuilder, _ string, _ resource.Operation, filters *ordered.Map) error {
	raw, ok := filters.Get(f.parameterName)
	if !ok {
		return nil
	}
	clauses, ok := raw.(*ordered.Map)
	if !ok {
		f.ignore(f.parameterName, "expected order[property]=direction", raw)
		return nil
	}

	clauses.Range(func(property string, value interface{}) bool {
		strategy, ok := f.strategy(qb, property)
		if !ok {
			return true
		}
		direction, _ := stringValue(value)
		if direction == "" {
			direction = strategy
		}
		direction = strings.ToUpper(direction)
		if direction != "ASC" && direction != "DESC" {
			f.ignore(property, "direction must be asc or desc", value)
			return true
		}
		qb.OrderBy(property, direction)
		return true
	})
	return nil
}

func (f *OrderFilter) Description(_ string) []Parameter {
	out := make([]Parameter, 0, len(f.properties))
	for _, p := range f.properties {
		out = append(out, Parameter{
			Key:      f.parameterName + "[" + p.Name + "]",
			Property: p.Name,
			Type:     "string",
			Strategy: p.Strategy,
		})
	}
	return out
}
