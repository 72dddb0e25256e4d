package filter

import (
	"time"

	"github.com/Foxprodev/core/internal/identifier"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// Date null handling strategies
const (
	ExcludeNull = "exclude_null"
	IncludeNull = "include_null"
)

var dateOperators = []struct {
	name string
	op   query.Operator
}{
	{"before", query.OpLessThanOrEqual},
	{"strictly_before", query.OpLessThan},
	{"after", query.OpGreaterThanOrEqual},
	{"strictly_after", query.OpGreaterThan},
}

// DateFilter bounds date properties: ?createdAt[after]=2024-01-01
type DateFilter struct {
	base
}

// NewDateFilter creates a date filter. A property strategy of exclude_null
// drops rows without a date, include_null keeps them.
func NewDateFilter(properties []resource.FilterProperty, logger *zap.Logger) *DateFilter {
	return &DateFilter{base: newBase(properties, logger)}
}

func (f *DateFilter) Apply(qb *query.QueryBuilder, _ string, _ resource.Operation, filters *ordered.Map) error {
	filters.Range(func(property string, value interface{}) bool {
		strategy, ok := f.strategy(qb, property)
		if !ok {
			return true
		}
		bounds, ok := value.(*ordered.Map)
		if !ok {
			return true
		}

		group := query.NewPredicateGroup(false)
		for _, d := range dateOperators {
			raw, ok := bounds.Get(d.name)
			if !ok {
				continue
			}
			t, ok := parseDate(raw)
			if !ok {
				f.ignore(property, "expected a date", raw)
				continue
			}
			group.Add(property, d.op, t)
		}
		if len(group.Conditions) == 0 {
			return true
		}

		switch strategy {
		case IncludeNull:
			qb.WhereGroup(query.NewPredicateGroup(true).
				AddGroup(group).
				Add(property, query.OpIsNull, nil))
		case ExcludeNull:
			qb.WhereNotNull(property).WhereGroup(group)
		default:
			qb.WhereGroup(group)
		}
		return true
	})
	return nil
}

func parseDate(v interface{}) (time.Time, bool) {
	s, ok := stringValue(v)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range identifier.DateTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (f *DateFilter) Description(_ string) []Parameter {
	var out []Parameter
	for _, p := range f.properties {
		for _, d := range dateOperators {
			out = append(out, Parameter{Key: p.Name + "[" + d.name + "]", Property: p.Name, Type: "string", Strategy: p.Strategy})
		}
	}
	return out
}
