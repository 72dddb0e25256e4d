package relationships

import (
	"context"
	"fmt"
	"strings"

	"github.com/Foxprodev/core/internal/orm/schema"
)

// EagerLoad loads relationships for a set of records in batched queries.
// Includes are relationship property paths; nested paths are dotted.
func (l *Loader) EagerLoad(
	ctx context.Context,
	records []map[string]interface{},
	resource *schema.ResourceSchema,
	includes []string,
) error {
	if len(records) == 0 {
		return nil
	}

	return l.EagerLoadWithContext(ctx, records, resource, includes, NewLoadContext(DefaultMaxDepth))
}

// EagerLoadWithContext loads relationships with circular reference prevention
func (l *Loader) EagerLoadWithContext(
	ctx context.Context,
	records []map[string]interface{},
	resource *schema.ResourceSchema,
	includes []string,
	loadCtx *LoadContext,
) error {
	if len(records) == 0 {
		return nil
	}

	// Check depth limit
	if err := loadCtx.IncrementDepth(); err != nil {
		return err
	}
	defer loadCtx.DecrementDepth()

	// Post -> Author -> Post is skipped rather than looping
	resourceKey := resource.Name
	if !loadCtx.MarkVisited(resourceKey) {
		return nil
	}
	defer loadCtx.Unmark(resourceKey)

	for _, group := range groupIncludes(includes) {
		relation, nestedIncludes := group.relation, group.nested
		rel, ok := resource.Relationships[relation]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRelationship, relation)
		}

		if err := l.loadRelationship(ctx, records, rel, resource); err != nil {
			return fmt.Errorf("failed to load relationship %s: %w", relation, err)
		}

		if len(nestedIncludes) == 0 {
			continue
		}

		targetSchema, ok := l.schemas.Get(rel.TargetResource)
		if !ok {
			return fmt.Errorf("unknown resource: %s", rel.TargetResource)
		}

		nestedRecords := extractNestedRecords(records, rel, targetSchema.PrimaryKeyColumn())
		if err := l.EagerLoadWithContext(ctx, nestedRecords, targetSchema, nestedIncludes, loadCtx); err != nil {
			return err
		}
	}

	return nil
}

// loadRelationship loads a single relationship type
func (l *Loader) loadRelationship(
	ctx context.Context,
	records []map[string]interface{},
	rel *schema.Relationship,
	resource *schema.ResourceSchema,
) error {
	switch rel.Type {
	case schema.RelationshipBelongsTo:
		return l.loadBelongsTo(ctx, records, rel)
	case schema.RelationshipHasMany:
		return l.loadHasMany(ctx, records, rel, resource)
	case schema.RelationshipHasOne:
		return l.loadHasOne(ctx, records, rel, resource)
	case schema.RelationshipHasManyThrough:
		return l.loadHasManyThrough(ctx, records, rel, resource)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidRelationType, rel.Type)
	}
}

type includeGroup struct {
	relation string
	nested   []string
}

// groupIncludes turns ["author.posts", "author", "tags"] into
// [author: [posts], tags: []], keeping first-seen order
func groupIncludes(includes []string) []includeGroup {
	var groups []includeGroup
	index := make(map[string]int, len(includes))
	for _, include := range includes {
		relation, nested, found := strings.Cut(include, ".")
		i, ok := index[relation]
		if !ok {
			i = len(groups)
			index[relation] = i
			groups = append(groups, includeGroup{relation: relation})
		}
		if found && nested != "" {
			groups[i].nested = append(groups[i].nested, nested)
		}
	}
	return groups
}

// extractNestedRecords extracts nested records from parent records
func extractNestedRecords(records []map[string]interface{}, rel *schema.Relationship, pk string) []map[string]interface{} {
	var nested []map[string]interface{}
	seen := make(map[string]bool)

	add := func(relMap map[string]interface{}) {
		id, err := idToString(relMap[pk])
		if err != nil || seen[id] {
			return
		}
		seen[id] = true
		nested = append(nested, relMap)
	}

	for _, record := range records {
		switch relData := record[rel.FieldName].(type) {
		case map[string]interface{}:
			add(relData)
		case []map[string]interface{}:
			for _, relMap := range relData {
				add(relMap)
			}
		}
	}

	return nested
}
