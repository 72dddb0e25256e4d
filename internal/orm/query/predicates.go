package query

import (
	"fmt"
	"strings"
)

// Operator represents a comparison operator
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpIn
	OpNotIn
	OpLike
	OpILike
	OpIsNull
	OpIsNotNull
	OpBetween
)

// String returns the string representation of the operator
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	case OpLike:
		return "LIKE"
	case OpILike:
		return "ILIKE"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpBetween:
		return "BETWEEN"
	default:
		return "UNKNOWN"
	}
}

// ParseOperator converts a comparison keyword (as used by range filters) to an Operator
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(s) {
	case "=", "eq":
		return OpEqual, nil
	case "!=", "<>", "ne":
		return OpNotEqual, nil
	case ">", "gt":
		return OpGreaterThan, nil
	case ">=", "gte":
		return OpGreaterThanOrEqual, nil
	case "<", "lt":
		return OpLessThan, nil
	case "<=", "lte":
		return OpLessThanOrEqual, nil
	case "between":
		return OpBetween, nil
	default:
		return OpEqual, fmt.Errorf("unknown operator: %s", s)
	}
}

// Condition represents a WHERE condition. Field holds the resolved column
// expression once the condition is attached to a QueryBuilder.
type Condition struct {
	Field    string
	Operator Operator
	Value    interface{}
	Or       bool // true for OR, false for AND

	// Group, when set, replaces Field/Operator/Value with a parenthesised group
	Group *PredicateGroup
}

// PredicateGroup represents a group of predicates combined with AND/OR
type PredicateGroup struct {
	Conditions []*Condition
	Or         bool // true for OR, false for AND
}

// NewPredicateGroup creates a new predicate group
func NewPredicateGroup(or bool) *PredicateGroup {
	return &PredicateGroup{
		Conditions: make([]*Condition, 0),
		Or:         or,
	}
}

// Add adds a condition to the group
func (pg *PredicateGroup) Add(field string, op Operator, value interface{}) *PredicateGroup {
	pg.Conditions = append(pg.Conditions, &Condition{Field: field, Operator: op, Value: value})
	return pg
}

// AddGroup adds a nested group
func (pg *PredicateGroup) AddGroup(group *PredicateGroup) *PredicateGroup {
	pg.Conditions = append(pg.Conditions, &Condition{Group: group})
	return pg
}

// ToSQL converts the predicate group to SQL
func (pg *PredicateGroup) ToSQL(paramCounter *int, args *[]interface{}) (string, error) {
	parts := make([]string, 0, len(pg.Conditions))

	for _, cond := range pg.Conditions {
		sql, err := conditionToSQL(cond, paramCounter, args)
		if err != nil {
			return "", err
		}
		if sql != "" {
			parts = append(parts, sql)
		}
	}

	if len(parts) == 0 {
		return "", nil
	}

	connector := " AND "
	if pg.Or {
		connector = " OR "
	}

	return strings.Join(parts, connector), nil
}

func (pg *PredicateGroup) clone() *PredicateGroup {
	out := &PredicateGroup{Or: pg.Or, Conditions: make([]*Condition, len(pg.Conditions))}
	for i, cond := range pg.Conditions {
		c := *cond
		if cond.Group != nil {
			c.Group = cond.Group.clone()
		}
		out.Conditions[i] = &c
	}
	return out
}

// conditionToSQL converts a condition to SQL with parameterized values
func conditionToSQL(cond *Condition, paramCounter *int, args *[]interface{}) (string, error) {
	if cond.Group != nil {
		sql, err := cond.Group.ToSQL(paramCounter, args)
		if err != nil || sql == "" {
			return sql, err
		}
		return "(" + sql + ")", nil
	}

	switch cond.Operator {
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterThanOrEqual,
		OpLessThan, OpLessThanOrEqual, OpLike, OpILike:
		*args = append(*args, cond.Value)
		sql := fmt.Sprintf("%s %s $%d", cond.Field, cond.Operator, *paramCounter)
		*paramCounter++
		return sql, nil

	case OpIn:
		values, ok := cond.Value.([]interface{})
		if !ok {
			return "", fmt.Errorf("IN operator requires []interface{} value")
		}
		if len(values) == 0 {
			// IN with empty array always returns false
			return "1 = 0", nil
		}
		return fmt.Sprintf("%s IN (%s)", cond.Field, placeholders(values, paramCounter, args)), nil

	case OpNotIn:
		values, ok := cond.Value.([]interface{})
		if !ok {
			return "", fmt.Errorf("NOT IN operator requires []interface{} value")
		}
		if len(values) == 0 {
			// NOT IN with empty array always returns true
			return "1 = 1", nil
		}
		return fmt.Sprintf("%s NOT IN (%s)", cond.Field, placeholders(values, paramCounter, args)), nil

	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", cond.Field), nil

	case OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", cond.Field), nil

	case OpBetween:
		values, ok := cond.Value.([]interface{})
		if !ok || len(values) != 2 {
			return "", fmt.Errorf("BETWEEN operator requires [min, max] values")
		}
		*args = append(*args, values[0], values[1])
		sql := fmt.Sprintf("%s BETWEEN $%d AND $%d", cond.Field, *paramCounter, *paramCounter+1)
		*paramCounter += 2
		return sql, nil

	default:
		return "", fmt.Errorf("unsupported operator: %v", cond.Operator)
	}
}

func placeholders(values []interface{}, paramCounter *int, args *[]interface{}) string {
	out := make([]string, len(values))
	for i, v := range values {
		*args = append(*args, v)
		out[i] = fmt.Sprintf("$%d", *paramCounter)
		*paramCounter++
	}
	return strings.Join(out, ", ")
}
