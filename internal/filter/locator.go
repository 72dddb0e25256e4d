package filter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"go.uber.org/zap"
)

// Filter types usable in filter struct tags
const (
	TypeSearch  = "search"
	TypeOrder   = "order"
	TypeBoolean = "boolean"
	TypeRange   = "range"
	TypeExists  = "exists"
	TypeDate    = "date"
)

// Locator maps filter ids to filters
type Locator struct {
	filters map[string]Filter
	mu      sync.RWMutex
}

// NewLocator creates an empty locator
func NewLocator() *Locator {
	return &Locator{filters: make(map[string]Filter)}
}

// NewLocatorFromDeclarations registers a filter for every filter struct tag
// declaration of the registry's resource classes
func NewLocatorFromDeclarations(registry *class.Registry, logger *zap.Logger) (*Locator, error) {
	l := NewLocator()
	for _, name := range registry.Classes() {
		for _, decl := range resource.FilterDeclarations(registry, name) {
			f, err := New(decl.Type, decl.Properties, logger)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			l.Register(decl.ID, f)
		}
	}
	return l, nil
}

// New builds a built-in filter of filterType
func New(filterType string, properties []resource.FilterProperty, logger *zap.Logger) (Filter, error) {
	switch filterType {
	case TypeSearch:
		return NewSearchFilter(properties, logger), nil
	case TypeOrder:
		return NewOrderFilter(properties, "", logger), nil
	case TypeBoolean:
		return NewBooleanFilter(properties, logger), nil
	case TypeRange:
		return NewRangeFilter(properties, logger), nil
	case TypeExists:
		return NewExistsFilter(properties, "", logger), nil
	case TypeDate:
		return NewDateFilter(properties, logger), nil
	default:
		return nil, apierr.Configuration("unknown filter type %q", filterType)
	}
}

// Register adds or replaces the filter called id
func (l *Locator) Register(id string, f Filter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filters[id] = f
}

// Get returns the filter called id
func (l *Locator) Get(id string) (Filter, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.filters[id]
	return f, ok
}

// Has reports whether a filter called id is registered
func (l *Locator) Has(id string) bool {
	_, ok := l.Get(id)
	return ok
}

// IDs returns the sorted filter ids
func (l *Locator) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.filters))
	for id := range l.filters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ForOperation returns the filters of op in declaration order. Unknown ids
// are a configuration error.
func (l *Locator) ForOperation(op resource.Operation) ([]Filter, error) {
	ids := op.Filters()
	out := make([]Filter, 0, len(ids))
	for _, id := range ids {
		f, ok := l.Get(id)
		if !ok {
			return nil, apierr.Configuration("Filter %q used by operation %q is not registered.", id, op.Name())
		}
		out = append(out, f)
	}
	return out, nil
}
