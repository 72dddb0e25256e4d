package filter

import (
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// DefaultExistsParameterName is the request parameter read by ExistsFilter
const DefaultExistsParameterName = "exists"

// ExistsFilter matches on the presence of nullable properties:
// ?exists[publishedAt]=true
type ExistsFilter struct {
	base
	parameterName string
}

// NewExistsFilter creates an exists filter reading parameterName (exists when empty)
func NewExistsFilter(properties []resource.FilterProperty, parameterName string, logger *zap.Logger) *ExistsFilter {
	if parameterName == "" {
		parameterName = DefaultExistsParameterName
	}
	return &ExistsFilter{base: newBase(properties, logger), parameterName: parameterName}
}

func (f *ExistsFilter) Apply(qb *query.QueryBuilder, _ string, _ resource.Operation, filters *ordered.Map) error {
	raw, ok := filters.Get(f.parameterName)
	if !ok {
		return nil
	}
	checks, ok := raw.(*ordered.Map)
	if !ok {
		f.ignore(f.parameterName, "expected exists[property]=bool", raw)
		return nil
	}

	checks.Range(func(property string, value interface{}) bool {
		if _, ok := f.strategy(qb, property); !ok {
			return true
		}
		exists, ok := parseBool(value)
		if !ok {
			f.ignore(property, "expected one of true, false, 1, 0", value)
			return true
		}
		if exists {
			qb.WhereNotNull(property)
		} else {
			qb.WhereNull(property)
		}
		return true
	})
	return nil
}

func (f *ExistsFilter) Description(_ string) []Parameter {
	out := make([]Parameter, 0, len(f.properties))
	for _, p := range f.properties {
		out = append(out, Parameter{Key: f.parameterName + "[" + p.Name + "]", Property: p.Name, Type: "bool"})
	}
	return out
}
