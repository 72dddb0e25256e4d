package relationships

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Foxprodev/core/internal/orm/schema"
	"github.com/lib/pq"
)

// loadBelongsTo loads belongs-to relationships using a batched IN query
// Example: Post belongs_to User
//   - Collect all unique author_ids from posts
//   - Single query: SELECT * FROM users WHERE id = ANY($1)
//   - Map users back to posts
func (l *Loader) loadBelongsTo(
	ctx context.Context,
	records []map[string]interface{},
	rel *schema.Relationship,
) error {
	ids, err := collectIDs(records, rel.ForeignKey)
	if err != nil {
		return fmt.Errorf("invalid foreign key type for %s: %w", rel.ForeignKey, err)
	}

	if len(ids) == 0 {
		// No foreign keys to load
		for _, record := range records {
			record[rel.FieldName] = nil
		}
		return nil
	}

	targetSchema, ok := l.schemas.Get(rel.TargetResource)
	if !ok {
		return fmt.Errorf("unknown resource: %s", rel.TargetResource)
	}
	pk := targetSchema.PrimaryKeyColumn()

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ANY($1)",
		pq.QuoteIdentifier(targetSchema.TableName), pq.QuoteIdentifier(pk))

	results, err := l.query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query belongs_to relationship: %w", err)
	}

	related, err := indexBy(results, pk)
	if err != nil {
		return fmt.Errorf("invalid ID type in results: %w", err)
	}

	// Attach to parent records
	for _, record := range records {
		record[rel.FieldName] = nil
		if id := record[rel.ForeignKey]; id != nil {
			idStr, err := idToString(id)
			if err != nil {
				return fmt.Errorf("invalid foreign key value: %w", err)
			}
			if relRecord, ok := related[idStr]; ok {
				record[rel.FieldName] = relRecord
			}
		}
	}

	return nil
}

// loadHasMany loads has-many relationships using a batched IN query
// Example: Post has_many Comment
//   - Collect all post IDs
//   - Single query: SELECT * FROM comments WHERE post_id = ANY($1)
//   - Group comments by post_id
//   - Attach to posts
func (l *Loader) loadHasMany(
	ctx context.Context,
	records []map[string]interface{},
	rel *schema.Relationship,
	resource *schema.ResourceSchema,
) error {
	pk := resource.PrimaryKeyColumn()
	parentIDs, err := collectIDs(records, pk)
	if err != nil {
		return fmt.Errorf("invalid parent ID type: %w", err)
	}

	if len(parentIDs) == 0 {
		return nil
	}

	targetSchema, ok := l.schemas.Get(rel.TargetResource)
	if !ok {
		return fmt.Errorf("unknown resource: %s", rel.TargetResource)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ANY($1)",
		pq.QuoteIdentifier(targetSchema.TableName), pq.QuoteIdentifier(rel.ForeignKey))
	if rel.OrderBy != "" {
		query += fmt.Sprintf(" ORDER BY %s", quoteSortClause(rel.OrderBy))
	}

	results, err := l.query(ctx, query, parentIDs)
	if err != nil {
		return fmt.Errorf("failed to query has_many relationship: %w", err)
	}

	grouped, err := groupBy(results, rel.ForeignKey, false)
	if err != nil {
		return fmt.Errorf("invalid parent ID in results: %w", err)
	}

	return attachMany(records, pk, rel.FieldName, grouped)
}

// loadHasOne loads has-one relationships using a batched IN query
// Example: User has_one Profile
//   - Collect all user IDs
//   - Single query: SELECT DISTINCT ON (user_id) * FROM profiles WHERE user_id = ANY($1)
//   - Map profiles back to users
func (l *Loader) loadHasOne(
	ctx context.Context,
	records []map[string]interface{},
	rel *schema.Relationship,
	resource *schema.ResourceSchema,
) error {
	pk := resource.PrimaryKeyColumn()
	parentIDs, err := collectIDs(records, pk)
	if err != nil {
		return fmt.Errorf("invalid parent ID type: %w", err)
	}

	if len(parentIDs) == 0 {
		return nil
	}

	targetSchema, ok := l.schemas.Get(rel.TargetResource)
	if !ok {
		return fmt.Errorf("unknown resource: %s", rel.TargetResource)
	}

	fk := pq.QuoteIdentifier(rel.ForeignKey)
	query := fmt.Sprintf(
		"SELECT DISTINCT ON (%s) * FROM %s WHERE %s = ANY($1) ORDER BY %s, %s",
		fk, pq.QuoteIdentifier(targetSchema.TableName), fk, fk, pq.QuoteIdentifier(targetSchema.PrimaryKeyColumn()),
	)

	results, err := l.query(ctx, query, parentIDs)
	if err != nil {
		return fmt.Errorf("failed to query has_one relationship: %w", err)
	}

	related, err := indexBy(results, rel.ForeignKey)
	if err != nil {
		return fmt.Errorf("invalid parent ID in results: %w", err)
	}

	for _, record := range records {
		idStr, err := idToString(record[pk])
		if err != nil {
			return fmt.Errorf("invalid parent record ID: %w", err)
		}
		record[rel.FieldName] = nil
		if relRecord, ok := related[idStr]; ok {
			record[rel.FieldName] = relRecord
		}
	}

	return nil
}

// loadHasManyThrough loads has-many-through relationships using a JOIN query
// Example: Post has_many Tag through post_tags
//   - Three-way join through junction table
//   - Single query with JOIN
//   - Group by parent ID
func (l *Loader) loadHasManyThrough(
	ctx context.Context,
	records []map[string]interface{},
	rel *schema.Relationship,
	resource *schema.ResourceSchema,
) error {
	pk := resource.PrimaryKeyColumn()
	parentIDs, err := collectIDs(records, pk)
	if err != nil {
		return fmt.Errorf("invalid parent ID type: %w", err)
	}

	if len(parentIDs) == 0 {
		return nil
	}

	targetSchema, ok := l.schemas.Get(rel.TargetResource)
	if !ok {
		return fmt.Errorf("unknown resource: %s", rel.TargetResource)
	}

	query := fmt.Sprintf(
		"SELECT t.*, j.%s AS __parent_id FROM %s t INNER JOIN %s j ON t.%s = j.%s WHERE j.%s = ANY($1)",
		pq.QuoteIdentifier(rel.ForeignKey),
		pq.QuoteIdentifier(targetSchema.TableName),
		pq.QuoteIdentifier(rel.JoinTable),
		pq.QuoteIdentifier(targetSchema.PrimaryKeyColumn()),
		pq.QuoteIdentifier(rel.AssociationKey),
		pq.QuoteIdentifier(rel.ForeignKey),
	)
	if rel.OrderBy != "" {
		query += fmt.Sprintf(" ORDER BY %s", quoteSortClause(rel.OrderBy))
	}

	results, err := l.query(ctx, query, parentIDs)
	if err != nil {
		return fmt.Errorf("failed to query has_many_through relationship: %w", err)
	}

	grouped, err := groupBy(results, "__parent_id", true)
	if err != nil {
		return fmt.Errorf("invalid parent ID in through results: %w", err)
	}

	return attachMany(records, pk, rel.FieldName, grouped)
}

func (l *Loader) query(ctx context.Context, query string, ids []interface{}) ([]map[string]interface{}, error) {
	rows, err := l.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

// collectIDs returns the distinct non-nil values of column
func collectIDs(records []map[string]interface{}, column string) ([]interface{}, error) {
	var ids []interface{}
	seen := make(map[string]bool)

	for _, record := range records {
		id := record[column]
		if id == nil {
			continue
		}
		idStr, err := idToString(id)
		if err != nil {
			return nil, err
		}
		if !seen[idStr] {
			seen[idStr] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func indexBy(results []map[string]interface{}, column string) (map[string]map[string]interface{}, error) {
	indexed := make(map[string]map[string]interface{}, len(results))
	for _, record := range results {
		idStr, err := idToString(record[column])
		if err != nil {
			return nil, err
		}
		indexed[idStr] = record
	}
	return indexed, nil
}

func groupBy(results []map[string]interface{}, column string, drop bool) (map[string][]map[string]interface{}, error) {
	grouped := make(map[string][]map[string]interface{})
	for _, record := range results {
		idStr, err := idToString(record[column])
		if err != nil {
			return nil, err
		}
		if drop {
			delete(record, column) // Remove join artifact
		}
		grouped[idStr] = append(grouped[idStr], record)
	}
	return grouped, nil
}

// attachMany attaches grouped children (always an empty slice, not nil)
func attachMany(records []map[string]interface{}, pk, field string, grouped map[string][]map[string]interface{}) error {
	for _, record := range records {
		idStr, err := idToString(record[pk])
		if err != nil {
			return fmt.Errorf("invalid parent record ID: %w", err)
		}
		if children, ok := grouped[idStr]; ok {
			record[field] = children
		} else {
			record[field] = []map[string]interface{}{}
		}
	}
	return nil
}

// scanRows scans multiple SQL rows into a slice of maps
func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
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
			// Handle []byte conversion to string for text fields
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// quoteSortClause safely quotes column identifiers in an ORDER BY clause
// Handles formats like "created_at DESC" or "name ASC, id DESC"
func quoteSortClause(orderBy string) string {
	parts := strings.Split(orderBy, ",")
	quoted := make([]string, 0, len(parts))

	for _, part := range parts {
		tokens := strings.Fields(part)
		if len(tokens) == 0 {
			continue
		}

		quotedCol := pq.QuoteIdentifier(tokens[0])

		// Preserve direction (ASC/DESC) if present
		if len(tokens) > 1 {
			direction := strings.ToUpper(tokens[1])
			if direction == "ASC" || direction == "DESC" {
				quotedCol += " " + direction
			}
		}
		quoted = append(quoted, quotedCol)
	}

	return strings.Join(quoted, ", ")
}

// idToString converts an ID to a string map key with type validation
func idToString(id interface{}) (string, error) {
	if id == nil {
		return "", fmt.Errorf("ID cannot be nil")
	}

	switch v := id.(type) {
	case string:
		return v, nil
	case int, int64, int32, uint, uint64:
		return fmt.Sprintf("%d", v), nil
	case []byte:
		// UUID stored as bytes
		return string(v), nil
	default:
		// Fallback for other types (e.g., custom UUID types)
		return fmt.Sprintf("%v", v), nil
	}
}
