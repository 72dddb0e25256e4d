// Package query provides a fluent SQL query builder over resource schemas
package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Foxprodev/core/internal/orm/schema"
)

// Querier is the subset of *sql.DB, *sql.Tx and *sql.Conn the builder needs
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// RelationshipLoader is an interface for loading relationships
// This avoids circular dependencies between query and relationships packages
type RelationshipLoader interface {
	EagerLoad(ctx context.Context, records []map[string]interface{}, resource *schema.ResourceSchema, includes []string) error
}

// QueryBuilder provides a fluent API for building SQL queries.
//
// Fields are given as property names and resolved to columns through the
// resource schema. Dotted paths (owner.name) follow belongs_to and has_one
// relationships with LEFT JOINs. Invalid fields do not panic: the first
// error is kept and returned by ToSQL and the executing methods.
type QueryBuilder struct {
	resource *schema.ResourceSchema
	table    string
	db       Querier
	schemas  *schema.Registry
	loader   RelationshipLoader

	selects    []string
	conditions []*Condition
	joins      []*Join
	orderBy    []string
	limit      *int
	offset     *int
	matchNone  bool
	includes   []string
	err        error

	// For building SQL
	paramCounter int
	args         []interface{}
}

// JoinType represents the type of SQL join
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

// String returns the string representation of the join type
func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "LEFT"
	default:
		return "INNER"
	}
}

// Join represents a SQL join clause
type Join struct {
	Type      JoinType
	Table     string
	Alias     string
	Condition string
}

// NewQueryBuilder creates a new query builder for the given resource
func NewQueryBuilder(resource *schema.ResourceSchema, db Querier, schemas *schema.Registry) *QueryBuilder {
	return &QueryBuilder{
		resource:     resource,
		table:        resource.TableName,
		db:           db,
		schemas:      schemas,
		paramCounter: 1,
	}
}

// NewTableQuery creates a builder over a bare table, such as a join table.
// Fields are used as column names.
func NewTableQuery(table string, db Querier) *QueryBuilder {
	qb := &QueryBuilder{table: table, db: db, paramCounter: 1}
	if !isValidIdentifier(table) {
		qb.fail(fmt.Errorf("invalid identifier: %s", table))
	}
	return qb
}

// WithLoader sets the relationship loader for eager loading
func (qb *QueryBuilder) WithLoader(loader RelationshipLoader) *QueryBuilder {
	qb.loader = loader
	return qb
}

// Resource returns the schema the builder queries, nil for table queries
func (qb *QueryBuilder) Resource() *schema.ResourceSchema {
	return qb.resource
}

// Table returns the table the builder selects from
func (qb *QueryBuilder) Table() string {
	return qb.table
}

// Err returns the first error recorded while building the query
func (qb *QueryBuilder) Err() error {
	return qb.err
}

func (qb *QueryBuilder) fail(err error) {
	if qb.err == nil {
		qb.err = err
	}
}

// HasField reports whether field resolves to a column
func (qb *QueryBuilder) HasField(field string) bool {
	_, err := qb.Clone().column(field)
	return err == nil
}

// Select restricts the selected columns
func (qb *QueryBuilder) Select(fields ...string) *QueryBuilder {
	for _, field := range fields {
		col, err := qb.column(field)
		if err != nil {
			qb.fail(err)
			continue
		}
		qb.selects = append(qb.selects, col)
	}
	return qb
}

// Where adds a WHERE condition to the query
func (qb *QueryBuilder) Where(field string, op Operator, value interface{}) *QueryBuilder {
	return qb.addCondition(field, op, value, false)
}

// OrWhere adds an OR WHERE condition to the query
func (qb *QueryBuilder) OrWhere(field string, op Operator, value interface{}) *QueryBuilder {
	return qb.addCondition(field, op, value, true)
}

func (qb *QueryBuilder) addCondition(field string, op Operator, value interface{}, or bool) *QueryBuilder {
	col, err := qb.column(field)
	if err != nil {
		qb.fail(err)
		return qb
	}

	qb.conditions = append(qb.conditions, &Condition{
		Field:    col,
		Operator: op,
		Value:    value,
		Or:       or,
	})
	return qb
}

// WhereColumn adds a condition on a raw column of the queried table, such
// as a foreign key no property maps to
func (qb *QueryBuilder) WhereColumn(column string, op Operator, value interface{}) *QueryBuilder {
	if !isValidIdentifier(column) {
		qb.fail(fmt.Errorf("invalid identifier: %s", column))
		return qb
	}
	qb.conditions = append(qb.conditions, &Condition{
		Field:    qb.table + "." + column,
		Operator: op,
		Value:    value,
	})
	return qb
}

// WhereGroup adds a parenthesised group of conditions
func (qb *QueryBuilder) WhereGroup(group *PredicateGroup) *QueryBuilder {
	resolved := group.clone()
	if err := qb.resolveGroup(resolved); err != nil {
		qb.fail(err)
		return qb
	}
	qb.conditions = append(qb.conditions, &Condition{Group: resolved})
	return qb
}

func (qb *QueryBuilder) resolveGroup(group *PredicateGroup) error {
	for _, cond := range group.Conditions {
		if cond.Group != nil {
			if err := qb.resolveGroup(cond.Group); err != nil {
				return err
			}
			continue
		}
		col, err := qb.column(cond.Field)
		if err != nil {
			return err
		}
		cond.Field = col
	}
	return nil
}

// WhereIn adds a WHERE IN condition
func (qb *QueryBuilder) WhereIn(field string, values []interface{}) *QueryBuilder {
	return qb.Where(field, OpIn, values)
}

// WhereNotIn adds a WHERE NOT IN condition
func (qb *QueryBuilder) WhereNotIn(field string, values []interface{}) *QueryBuilder {
	return qb.Where(field, OpNotIn, values)
}

// WhereNull adds a WHERE IS NULL condition
func (qb *QueryBuilder) WhereNull(field string) *QueryBuilder {
	return qb.Where(field, OpIsNull, nil)
}

// WhereNotNull adds a WHERE IS NOT NULL condition
func (qb *QueryBuilder) WhereNotNull(field string) *QueryBuilder {
	return qb.Where(field, OpIsNotNull, nil)
}

// WhereLike adds a WHERE LIKE condition
func (qb *QueryBuilder) WhereLike(field string, pattern string) *QueryBuilder {
	return qb.Where(field, OpLike, pattern)
}

// WhereILike adds a WHERE ILIKE condition (case-insensitive)
func (qb *QueryBuilder) WhereILike(field string, pattern string) *QueryBuilder {
	return qb.Where(field, OpILike, pattern)
}

// WhereBetween adds a WHERE BETWEEN condition
func (qb *QueryBuilder) WhereBetween(field string, min, max interface{}) *QueryBuilder {
	return qb.Where(field, OpBetween, []interface{}{min, max})
}

// MatchNone makes the query match no rows while keeping every other clause.
// Used instead of LIMIT 0, which some drivers read as "no limit".
func (qb *QueryBuilder) MatchNone() *QueryBuilder {
	qb.matchNone = true
	return qb
}

// IsMatchNone reports whether MatchNone was applied
func (qb *QueryBuilder) IsMatchNone() bool {
	return qb.matchNone
}

// OrderBy adds an ORDER BY clause
func (qb *QueryBuilder) OrderBy(field string, direction string) *QueryBuilder {
	col, err := qb.column(field)
	if err != nil {
		qb.fail(err)
		return qb
	}

	dir := strings.ToUpper(direction)
	if dir != "ASC" && dir != "DESC" {
		dir = "ASC"
	}
	qb.orderBy = append(qb.orderBy, fmt.Sprintf("%s %s", col, dir))
	return qb
}

// HasOrderBy reports whether an ordering was applied
func (qb *QueryBuilder) HasOrderBy() bool {
	return len(qb.orderBy) > 0
}

// Limit sets the LIMIT clause
func (qb *QueryBuilder) Limit(n int) *QueryBuilder {
	qb.limit = &n
	return qb
}

// Offset sets the OFFSET clause
func (qb *QueryBuilder) Offset(n int) *QueryBuilder {
	qb.offset = &n
	return qb
}

// GetLimit returns the limit, if any
func (qb *QueryBuilder) GetLimit() (int, bool) {
	if qb.limit == nil {
		return 0, false
	}
	return *qb.limit, true
}

// GetOffset returns the offset, 0 when unset
func (qb *QueryBuilder) GetOffset() int {
	if qb.offset == nil {
		return 0
	}
	return *qb.offset
}

// Includes adds relationships to eager load
func (qb *QueryBuilder) Includes(relationships ...string) *QueryBuilder {
	for _, rel := range relationships {
		if !containsString(qb.includes, rel) {
			qb.includes = append(qb.includes, rel)
		}
	}
	return qb
}

// GetIncludes returns the relationships to eager load
func (qb *QueryBuilder) GetIncludes() []string {
	return append([]string(nil), qb.includes...)
}

// column resolves a property path to a qualified column
func (qb *QueryBuilder) column(field string) (string, error) {
	if qb.resource == nil {
		if !isValidIdentifier(field) {
			return "", fmt.Errorf("invalid identifier: %s", field)
		}
		return qb.table + "." + field, nil
	}

	segments := strings.Split(field, ".")
	current := qb.resource
	alias := qb.table

	for i, segment := range segments[:len(segments)-1] {
		rel, ok := current.Relationships[segment]
		if !ok || rel.Type.IsToMany() {
			return "", fmt.Errorf("%w: %s on resource %s", ErrFieldNotFound, field, qb.resource.Name)
		}
		if qb.schemas == nil {
			return "", fmt.Errorf("%w: no schema registry to resolve %s", ErrFieldNotFound, field)
		}
		target, ok := qb.schemas.Get(rel.TargetResource)
		if !ok {
			return "", fmt.Errorf("%w: unknown resource %s", ErrFieldNotFound, rel.TargetResource)
		}

		joinAlias := qb.table + "_" + strings.Join(segments[:i+1], "_")
		var condition string
		if rel.Type == schema.RelationshipBelongsTo {
			condition = fmt.Sprintf("%s.%s = %s.%s", joinAlias, target.PrimaryKeyColumn(), alias, rel.ForeignKey)
		} else {
			condition = fmt.Sprintf("%s.%s = %s.%s", joinAlias, rel.ForeignKey, alias, current.PrimaryKeyColumn())
		}
		qb.addJoin(&Join{Type: LeftJoin, Table: target.TableName, Alias: joinAlias, Condition: condition})

		current = target
		alias = joinAlias
	}

	last := segments[len(segments)-1]
	if col, ok := current.Column(last); ok {
		return alias + "." + col, nil
	}
	if _, ok := current.FieldByColumn(last); ok {
		return alias + "." + last, nil
	}
	if _, ok := current.RelationshipByForeignKey(last); ok {
		return alias + "." + last, nil
	}
	return "", fmt.Errorf("%w: %s on resource %s", ErrFieldNotFound, field, qb.resource.Name)
}

func (qb *QueryBuilder) addJoin(join *Join) {
	for _, existing := range qb.joins {
		if existing.Alias == join.Alias {
			return
		}
	}
	qb.joins = append(qb.joins, join)
}

// ToSQL generates the SQL query and parameter bindings
func (qb *QueryBuilder) ToSQL() (string, []interface{}, error) {
	selectClause := qb.table + ".*"
	if len(qb.selects) > 0 {
		selectClause = strings.Join(qb.selects, ", ")
	}
	return qb.build(selectClause, true)
}

// CountSQL generates the COUNT query, ignoring ordering, limit and offset
func (qb *QueryBuilder) CountSQL() (string, []interface{}, error) {
	return qb.build("COUNT(*)", false)
}

func (qb *QueryBuilder) build(selectClause string, window bool) (string, []interface{}, error) {
	if qb.err != nil {
		return "", nil, qb.err
	}

	var sql strings.Builder
	qb.args = make([]interface{}, 0)
	qb.paramCounter = 1

	sql.WriteString(fmt.Sprintf("SELECT %s FROM %s", selectClause, qb.table))

	// JOINs
	for _, join := range qb.joins {
		sql.WriteString(fmt.Sprintf(" %s JOIN %s %s ON %s",
			join.Type.String(),
			join.Table,
			join.Alias,
			join.Condition,
		))
	}

	// WHERE clauses
	var where strings.Builder
	for _, cond := range qb.conditions {
		condSQL, err := qb.conditionToSQL(cond)
		if err != nil {
			return "", nil, fmt.Errorf("failed to build condition: %w", err)
		}
		if condSQL == "" {
			continue
		}
		if where.Len() > 0 {
			if cond.Or {
				where.WriteString(" OR ")
			} else {
				where.WriteString(" AND ")
			}
		}
		where.WriteString(condSQL)
	}

	switch {
	case qb.matchNone && where.Len() > 0:
		sql.WriteString(" WHERE 1 = 0 AND (" + where.String() + ")")
	case qb.matchNone:
		sql.WriteString(" WHERE 1 = 0")
	case where.Len() > 0:
		sql.WriteString(" WHERE " + where.String())
	}

	if !window {
		return sql.String(), qb.args, nil
	}

	// ORDER BY
	if len(qb.orderBy) > 0 {
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(qb.orderBy, ", "))
	}

	// LIMIT
	if qb.limit != nil {
		sql.WriteString(fmt.Sprintf(" LIMIT $%d", qb.paramCounter))
		qb.args = append(qb.args, *qb.limit)
		qb.paramCounter++
	}

	// OFFSET
	if qb.offset != nil {
		sql.WriteString(fmt.Sprintf(" OFFSET $%d", qb.paramCounter))
		qb.args = append(qb.args, *qb.offset)
		qb.paramCounter++
	}

	return sql.String(), qb.args, nil
}

// conditionToSQL converts a condition to SQL
func (qb *QueryBuilder) conditionToSQL(cond *Condition) (string, error) {
	return conditionToSQL(cond, &qb.paramCounter, &qb.args)
}

// All executes the query and returns all matching rows
func (qb *QueryBuilder) All(ctx context.Context) ([]map[string]interface{}, error) {
	sqlStr, args, err := qb.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL: %w", err)
	}

	rows, err := qb.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", ConvertDBError(err))
	}
	defer rows.Close()

	results, err := ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rows: %w", err)
	}

	// Eager load relationships if any were specified
	if len(qb.includes) > 0 && len(results) > 0 {
		if err := qb.loadRelationships(ctx, results); err != nil {
			return nil, fmt.Errorf("failed to load relationships: %w", err)
		}
	}

	return results, nil
}

// loadRelationships loads the specified relationships for the given records
func (qb *QueryBuilder) loadRelationships(ctx context.Context, records []map[string]interface{}) error {
	// No loader configured: the builder is used standalone
	if qb.loader == nil || qb.resource == nil {
		return nil
	}

	// Delegate to the relationship loader
	return qb.loader.EagerLoad(ctx, records, qb.resource, qb.includes)
}

// First executes the query and returns the first matching row
func (qb *QueryBuilder) First(ctx context.Context) (map[string]interface{}, error) {
	results, err := qb.Clone().Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results[0], nil
}

// Count executes the query and returns the count
func (qb *QueryBuilder) Count(ctx context.Context) (int, error) {
	sqlStr, args, err := qb.CountSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to generate SQL: %w", err)
	}

	var count int
	err = qb.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w", ConvertDBError(err))
	}

	return count, nil
}

// Pluck returns the values of one field for every matching row
func (qb *QueryBuilder) Pluck(ctx context.Context, field string) ([]interface{}, error) {
	clone := qb.Clone()
	clone.selects = nil
	clone.includes = nil
	clone.Select(field)

	results, err := clone.All(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, len(results))
	for _, record := range results {
		for _, v := range record {
			values = append(values, v)
		}
	}
	return values, nil
}

// Clone creates a copy of the query builder
func (qb *QueryBuilder) Clone() *QueryBuilder {
	clone := &QueryBuilder{
		resource:     qb.resource,
		table:        qb.table,
		db:           qb.db,
		schemas:      qb.schemas,
		loader:       qb.loader, // Share the same loader
		selects:      append([]string(nil), qb.selects...),
		conditions:   make([]*Condition, len(qb.conditions)),
		joins:        make([]*Join, len(qb.joins)),
		orderBy:      append([]string(nil), qb.orderBy...),
		includes:     append([]string(nil), qb.includes...),
		matchNone:    qb.matchNone,
		err:          qb.err,
		paramCounter: 1,
	}

	for i, cond := range qb.conditions {
		c := *cond
		if cond.Group != nil {
			c.Group = cond.Group.clone()
		}
		clone.conditions[i] = &c
	}
	copy(clone.joins, qb.joins)

	if qb.limit != nil {
		limit := *qb.limit
		clone.limit = &limit
	}

	if qb.offset != nil {
		offset := *qb.offset
		clone.offset = &offset
	}

	return clone
}

// ScanRows scans SQL rows into a slice of maps keyed by column
func ScanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			record[col] = values[i]
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// isValidIdentifier checks if a string is a valid SQL identifier
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for _, char := range s {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
