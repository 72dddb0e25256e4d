// Package relationships loads related records in batched queries so that a
// page of N items never costs N extra round trips.
package relationships

import (
	"context"
	"database/sql"
	"sync"

	"github.com/Foxprodev/core/internal/orm/schema"
)

// DefaultMaxDepth bounds nested include paths such as author.posts.comments
const DefaultMaxDepth = 10

// Querier is an interface for executing SQL queries, allowing for testing and instrumentation
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Loader handles efficient relationship loading with N+1 prevention.
// Batched lookups use = ANY($1) with a pq.Array parameter and therefore
// target PostgreSQL.
type Loader struct {
	db      Querier
	schemas *schema.Registry
}

// NewLoader creates a new relationship loader
func NewLoader(db Querier, schemas *schema.Registry) *Loader {
	return &Loader{
		db:      db,
		schemas: schemas,
	}
}

// LoadContext tracks loading state to prevent circular references
type LoadContext struct {
	visited  map[string]bool
	depth    int
	maxDepth int
	mu       sync.Mutex
}

// NewLoadContext creates a new load context with the given max depth
func NewLoadContext(maxDepth int) *LoadContext {
	return &LoadContext{
		visited:  make(map[string]bool),
		maxDepth: maxDepth,
	}
}

// MarkVisited marks a resource as visited in the load context
func (lc *LoadContext) MarkVisited(resourceKey string) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.visited[resourceKey] {
		return false // Already visited
	}
	lc.visited[resourceKey] = true
	return true
}

// Unmark forgets a visited resource so sibling branches may load it again
func (lc *LoadContext) Unmark(resourceKey string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	delete(lc.visited, resourceKey)
}

// IncrementDepth increments the depth counter
func (lc *LoadContext) IncrementDepth() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.depth++
	if lc.depth > lc.maxDepth {
		return ErrMaxDepthExceeded
	}
	return nil
}

// DecrementDepth decrements the depth counter
func (lc *LoadContext) DecrementDepth() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.depth--
}
