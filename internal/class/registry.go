// Package class maps resource class names to Go struct types and answers
// "is this a resource class" for the metadata and serialization layers.
package class

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/Foxprodev/core/internal/apierr"
)

// Registry holds resource classes and the auxiliary classes (DTOs, embedded
// value objects) they reference. Only resource classes are exposed through the API.
type Registry struct {
	mu        sync.RWMutex
	types     map[string]reflect.Type
	names     map[reflect.Type]string
	resources map[string]bool
	order     []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		types:     make(map[string]reflect.Type),
		names:     make(map[reflect.Type]string),
		resources: make(map[string]bool),
	}
}

// Register registers sample's struct type as the resource class name.
func (r *Registry) Register(name string, sample interface{}) error {
	return r.register(name, sample, true)
}

// RegisterClass registers a non-resource class such as an input/output DTO.
func (r *Registry) RegisterClass(name string, sample interface{}) error {
	return r.register(name, sample, false)
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(name string, sample interface{}) {
	if err := r.Register(name, sample); err != nil {
		panic(err)
	}
}

func (r *Registry) register(name string, sample interface{}, isResource bool) error {
	if name == "" {
		return fmt.Errorf("resource class name must not be empty")
	}

	t := structType(reflect.TypeOf(sample))
	if t == nil {
		return fmt.Errorf("class %s must be backed by a struct, got %T", name, sample)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; exists {
		return fmt.Errorf("class %s is already registered", name)
	}
	if other, exists := r.names[t]; exists {
		return fmt.Errorf("type %s is already registered as %s", t, other)
	}

	r.types[name] = t
	r.names[t] = name
	r.resources[name] = isResource
	r.order = append(r.order, name)
	return nil
}

// IsResourceClass reports whether name is a registered resource class
func (r *Registry) IsResourceClass(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resources[name]
}

// Has reports whether name is registered at all
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

// Type returns the struct type registered for name
func (r *Registry) Type(name string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apierr.ErrResourceClassNotFound, name)
	}
	return t, nil
}

// New returns a pointer to a zero value of the class
func (r *Registry) New(name string) (interface{}, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	return reflect.New(t).Interface(), nil
}

// ClassOf returns the class name registered for object's type (pointers are followed).
func (r *Registry) ClassOf(object interface{}) (string, bool) {
	if object == nil {
		return "", false
	}
	t := structType(reflect.TypeOf(object))
	if t == nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[t]
	return name, ok
}

// ClassOfType returns the class name registered for t (pointers and slices are followed).
func (r *Registry) ClassOfType(t reflect.Type) (string, bool) {
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		t = t.Elem()
	}
	if t == nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[t]
	return name, ok
}

// GetResourceClass resolves the resource class of object. When hint is set
// the object must be of exactly that class. A nil object or a collection
// resolves to the hint.
func (r *Registry) GetResourceClass(object interface{}, hint string) (string, error) {
	if object == nil || isCollection(object) {
		if hint != "" && r.IsResourceClass(hint) {
			return hint, nil
		}
		return "", fmt.Errorf("%w: %q", apierr.ErrInvalidArgument, hint)
	}

	actual, ok := r.ClassOf(object)
	if !ok {
		return "", fmt.Errorf("%w: no resource class found for object of type %T", apierr.ErrInvalidArgument, object)
	}
	if hint != "" && hint != actual {
		return "", fmt.Errorf("%w: object of type %q is not an instance of %q", apierr.ErrInvalidArgument, actual, hint)
	}
	if !r.IsResourceClass(actual) {
		return "", fmt.Errorf("%w: %q is not a resource class", apierr.ErrInvalidArgument, actual)
	}
	return actual, nil
}

// Classes returns the resource classes in registration order
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.resources[name] {
			out = append(out, name)
		}
	}
	return out
}

// ShortName returns the last segment of a namespaced class name
// (App\Entity\Dummy, app.entity.Dummy and app/Dummy all give Dummy).
func ShortName(class string) string {
	if idx := strings.LastIndexAny(class, `\./`); idx >= 0 {
		return class[idx+1:]
	}
	return class
}

func structType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

func isCollection(object interface{}) bool {
	k := reflect.TypeOf(object).Kind()
	return k == reflect.Slice || k == reflect.Array
}
