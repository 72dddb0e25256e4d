package filter

import (
	"strings"

	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// Search strategies. The i prefix makes a strategy case insensitive.
const (
	StrategyExact     = "exact"
	StrategyPartial   = "partial"
	StrategyStart     = "start"
	StrategyEnd       = "end"
	StrategyWordStart = "word_start"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchFilter matches properties against exact values or patterns:
//
//	?name=foo&tags[]=a&tags[]=b&author=/users/3
type SearchFilter struct {
	base
}

// NewSearchFilter creates a search filter. Property strategies default to exact.
func NewSearchFilter(properties []resource.FilterProperty, logger *zap.Logger) *SearchFilter {
	return &SearchFilter{base: newBase(properties, logger)}
}

func (f *SearchFilter) Apply(qb *query.QueryBuilder, _ string, _ resource.Operation, filters *ordered.Map) error {
	filters.Range(func(property string, value interface{}) bool {
		strategy, ok := f.strategy(qb, property)
		if !ok {
			return true
		}
		vals := values(value)
		if len(vals) == 0 {
			f.ignore(property, "expected a value or a list of values", value)
			return true
		}
		for i, v := range vals {
			vals[i] = identifierFromIri(v)
		}
		f.apply(qb, property, strategy, vals)
		return true
	})
	return nil
}

func (f *SearchFilter) apply(qb *query.QueryBuilder, property, strategy string, vals []interface{}) {
	if strategy == "" {
		strategy = StrategyExact
	}
	insensitive := strings.HasPrefix(strategy, "i")
	strategy = strings.TrimPrefix(strategy, "i")

	if strategy == StrategyExact && !insensitive {
		if len(vals) == 1 {
			qb.Where(property, query.OpEqual, vals[0])
		} else {
			qb.WhereIn(property, vals)
		}
		return
	}

	op := query.OpLike
	if insensitive {
		op = query.OpILike
	}

	group := query.NewPredicateGroup(true)
	for _, v := range vals {
		s, ok := stringValue(v)
		if !ok {
			f.ignore(property, "expected a string", v)
			continue
		}
		s = likeEscaper.Replace(s)
		switch strategy {
		case StrategyPartial:
			group.Add(property, op, "%"+s+"%")
		case StrategyStart:
			group.Add(property, op, s+"%")
		case StrategyEnd:
			group.Add(property, op, "%"+s)
		case StrategyWordStart:
			group.AddGroup(query.NewPredicateGroup(true).
				Add(property, op, s+"%").
				Add(property, op, "% "+s+"%"))
		case StrategyExact:
			group.Add(property, op, s)
		default:
			f.ignore(property, "unknown strategy "+strategy, v)
		}
	}
	if len(group.Conditions) > 0 {
		qb.WhereGroup(group)
	}
}

func (f *SearchFilter) Description(_ string) []Parameter {
	var out []Parameter
	for _, p := range f.properties {
		strategy := p.Strategy
		if strategy == "" {
			strategy = StrategyExact
		}
		out = append(out,
			Parameter{Key: p.Name, Property: p.Name, Type: "string", Strategy: strategy},
			Parameter{Key: p.Name + "[]", Property: p.Name, Type: "string", Strategy: strategy, IsCollection: true},
		)
	}
	return out
}
