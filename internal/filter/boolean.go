package filter

import (
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// BooleanFilter matches boolean properties: ?active=true, ?active=0
type BooleanFilter struct {
	base
}

// NewBooleanFilter creates a boolean filter
func NewBooleanFilter(properties []resource.FilterProperty, logger *zap.Logger) *BooleanFilter {
	return &BooleanFilter{base: newBase(properties, logger)}
}

func (f *BooleanFilter) Apply(qb *query.QueryBuilder, _ string, _ resource.Operation, filters *ordered.Map) error {
	for _, p := range f.properties {
		raw, ok := filters.Get(p.Name)
		if !ok {
			continue
		}
		if _, enabled := f.strategy(qb, p.Name); !enabled {
			continue
		}
		b, ok := parseBool(raw)
		if !ok {
			f.ignore(p.Name, "expected one of true, false, 1, 0", raw)
			continue
		}
		qb.Where(p.Name, query.OpEqual, b)
	}
	return nil
}

func parseBool(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch t {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

func (f *BooleanFilter) Description(_ string) []Parameter {
	out := make([]Parameter, 0, len(f.properties))
	for _, p := range f.properties {
		out = append(out, Parameter{Key: p.Name, Property: p.Name, Type: "bool"})
	}
	return out
}
