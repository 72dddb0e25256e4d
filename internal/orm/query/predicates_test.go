package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorString(t *testing.T) {
	tests := []struct {
		op       Operator
		expected string
	}{
		{OpEqual, "="},
		{OpNotEqual, "!="},
		{OpGreaterThan, ">"},
		{OpGreaterThanOrEqual, ">="},
		{OpLessThan, "<"},
		{OpLessThanOrEqual, "<="},
		{OpIn, "IN"},
		{OpNotIn, "NOT IN"},
		{OpLike, "LIKE"},
		{OpILike, "ILIKE"},
		{OpIsNull, "IS NULL"},
		{OpIsNotNull, "IS NOT NULL"},
		{OpBetween, "BETWEEN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.op.String())
	}
}

func TestParseOperator(t *testing.T) {
	for keyword, want := range map[string]Operator{
		"gt":      OpGreaterThan,
		"GTE":     OpGreaterThanOrEqual,
		"lt":      OpLessThan,
		"lte":     OpLessThanOrEqual,
		"between": OpBetween,
		"=":       OpEqual,
	} {
		op, err := ParseOperator(keyword)
		require.NoError(t, err, keyword)
		assert.Equal(t, want, op, keyword)
	}

	_, err := ParseOperator("around")
	assert.Error(t, err)
}

func TestConditionToSQL(t *testing.T) {
	tests := []struct {
		name    string
		cond    *Condition
		sql     string
		args    []interface{}
		wantErr bool
	}{
		{"equal", &Condition{Field: "a", Operator: OpEqual, Value: 1}, "a = $1", []interface{}{1}, false},
		{"is null", &Condition{Field: "a", Operator: OpIsNull}, "a IS NULL", nil, false},
		{"not in empty", &Condition{Field: "a", Operator: OpNotIn, Value: []interface{}{}}, "1 = 1", nil, false},
		{"not in", &Condition{Field: "a", Operator: OpNotIn, Value: []interface{}{"x"}}, "a NOT IN ($1)", []interface{}{"x"}, false},
		{"in wrong type", &Condition{Field: "a", Operator: OpIn, Value: []int{1}}, "", nil, true},
		{"between wrong arity", &Condition{Field: "a", Operator: OpBetween, Value: []interface{}{1}}, "", nil, true},
		{"unknown operator", &Condition{Field: "a", Operator: Operator(99)}, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := 1
			var args []interface{}
			sql, err := conditionToSQL(tt.cond, &counter, &args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestPredicateGroup_Nested(t *testing.T) {
	inner := NewPredicateGroup(false).Add("b", OpEqual, 2).Add("c", OpEqual, 3)
	group := NewPredicateGroup(true).Add("a", OpEqual, 1).AddGroup(inner)

	counter := 1
	var args []interface{}
	sql, err := group.ToSQL(&counter, &args)
	require.NoError(t, err)
	assert.Equal(t, "a = $1 OR (b = $2 AND c = $3)", sql)
	assert.Equal(t, []interface{}{1, 2, 3}, args)

	empty, err := NewPredicateGroup(false).ToSQL(&counter, &args)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
