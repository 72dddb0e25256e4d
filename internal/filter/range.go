package filter

import (
	"strconv"
	"strings"

	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// RangeOperators lists the comparisons understood by RangeFilter
var RangeOperators = []string{"between", "gt", "gte", "lt", "lte"}

// RangeFilter compares numeric properties:
//
//	?price[gt]=10&price[lte]=20&rating[between]=1..5
type RangeFilter struct {
	base
}

// NewRangeFilter creates a range filter
func NewRangeFilter(properties []resource.FilterProperty, logger *zap.Logger) *RangeFilter {
	return &RangeFilter{base: newBase(properties, logger)}
}

func (f *RangeFilter) Apply(qb *query.QueryBuilder, _ string, _ resource.Operation, filters *ordered.Map) error {
	filters.Range(func(property string, value interface{}) bool {
		if _, ok := f.strategy(qb, property); !ok {
			return true
		}
		comparisons, ok := value.(*ordered.Map)
		if !ok {
			return true
		}
		comparisons.Range(func(operator string, raw interface{}) bool {
			f.compare(qb, property, operator, raw)
			return true
		})
		return true
	})
	return nil
}

func (f *RangeFilter) compare(qb *query.QueryBuilder, property, operator string, raw interface{}) {
	s, ok := stringValue(raw)
	if !ok {
		f.ignore(property, "expected a number", raw)
		return
	}

	op, err := query.ParseOperator(operator)
	if err != nil || op == query.OpEqual || op == query.OpNotEqual {
		f.ignore(property, "unknown range operator "+operator, raw)
		return
	}

	if op == query.OpBetween {
		lo, hi, found := strings.Cut(s, "..")
		lower, okLower := parseNumber(lo)
		upper, okUpper := parseNumber(hi)
		if !found || !okLower || !okUpper {
			f.ignore(property, "expected <min>..<max>", raw)
			return
		}
		if lo == hi {
			qb.Where(property, query.OpEqual, lower)
			return
		}
		qb.WhereBetween(property, lower, upper)
		return
	}

	n, ok := parseNumber(s)
	if !ok {
		f.ignore(property, "expected a number", raw)
		return
	}
	qb.Where(property, op, n)
}

// parseNumber keeps integers as int64 and falls back to float64
func parseNumber(s string) (interface{}, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return fl, true
	}
	return nil, false
}

func (f *RangeFilter) Description(_ string) []Parameter {
	var out []Parameter
	for _, p := range f.properties {
		for _, op := range RangeOperators {
			out = append(out, Parameter{Key: p.Name + "[" + op + "]", Property: p.Name, Type: "string"})
		}
	}
	return out
}
