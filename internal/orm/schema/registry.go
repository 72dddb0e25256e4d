package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
)

// Registry manages all resource schemas in the application
type Registry struct {
	schemas map[string]*ResourceSchema
	mu      sync.RWMutex
}

// NewRegistry creates a new schema registry
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*ResourceSchema),
	}
}

// FromClasses builds and registers the schema of every resource class
func FromClasses(classes *class.Registry) (*Registry, error) {
	r := NewRegistry()
	builder := NewBuilder(classes)

	for _, name := range classes.Classes() {
		schema, err := builder.Build(name)
		if err != nil {
			return nil, err
		}
		if err := r.Register(schema); err != nil {
			return nil, err
		}
	}

	if err := r.ValidateAll(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register registers a new resource schema
func (r *Registry) Register(schema *ResourceSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	if _, exists := r.schemas[schema.Name]; exists {
		return fmt.Errorf("resource %s is already registered", schema.Name)
	}

	if schema.TableName == "" {
		return fmt.Errorf("schema validation failed for %s: missing table name", schema.Name)
	}

	r.schemas[schema.Name] = schema
	return nil
}

// Get retrieves a resource schema by name
func (r *Registry) Get(name string) (*ResourceSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[name]
	return schema, exists
}

// MustGet is like Get but returns a configuration error for unmapped classes
func (r *Registry) MustGet(name string) (*ResourceSchema, error) {
	schema, ok := r.Get(name)
	if !ok {
		return nil, apierr.Configuration("No ORM schema is mapped for resource class %q.", name)
	}
	return schema, nil
}

// All returns a copy of all registered schemas
func (r *Registry) All() map[string]*ResourceSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Return copy to prevent external modification
	result := make(map[string]*ResourceSchema, len(r.schemas))
	for k, v := range r.schemas {
		result[k] = v
	}
	return result
}

// List returns the sorted resource names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateAll checks that every relationship targets a registered schema
func (r *Registry) ValidateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.schemas) {
		schema := r.schemas[name]
		for _, relName := range sortedKeys(schema.Relationships) {
			rel := schema.Relationships[relName]
			if _, ok := r.schemas[rel.TargetResource]; !ok {
				return fmt.Errorf("relationship validation failed: %s.%s targets unknown resource %s",
					name, relName, rel.TargetResource)
			}
		}
	}

	return nil
}

// Count returns the number of registered schemas
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.schemas)
}

// Exists checks if a resource schema exists
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[name]
	return exists
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
