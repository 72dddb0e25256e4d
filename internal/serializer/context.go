package serializer

import (
	"strings"

	"github.com/Foxprodev/core/internal/metadata/resource"
)

// Formats understood by the serializer
const (
	FormatJSON    = "json"
	FormatJSONAPI = "jsonapi"
	FormatHAL     = "jsonhal"
	FormatXML     = "xml"
	FormatCSV     = "csv"
	FormatYAML    = "yaml"
	FormatGraphQL = "graphql"
)

// Context carries the options of one normalization or denormalization.
// Nested properties get a derived copy from Child; the State is shared by
// every context of one top-level call and by nothing else.
type Context struct {
	ResourceClass string
	Operation     resource.Operation
	Groups        []string
	// Attributes restricts the properties written or read. Nil allows all.
	Attributes AttributeFilter
	// IRI of the object being normalized, computed when empty
	IRI            string
	RequestURI     string
	SkipNullValues bool
	// ObjectToPopulate is updated in place by Denormalize
	ObjectToPopulate interface{}
	// PreviousObject is the object before denormalization, for
	// post-denormalize security rules
	PreviousObject interface{}
	// DisallowExtraAttributes makes unknown input attributes an error
	DisallowExtraAttributes bool
	// Include lists JSON:API include paths such as "author.company"
	Include []string
	// Fields holds JSON:API sparse fieldsets by resource type
	Fields map[string][]string

	State *State

	outputTransformed bool
	inputTransformed  bool
	depth             int
}

// State is shared by every context of one top-level call
type State struct {
	// Resources lists the IRIs of the normalized resources
	Resources map[string]string
	// ResourcesToPush lists the IRIs of the relations written as links
	ResourcesToPush map[string]string
	// IncludedResources lists the IRIs already in a JSON:API document
	IncludedResources map[string]bool
	Cache             *RequestCache
}

// NewState returns an empty State
func NewState() *State {
	return &State{
		Resources:         make(map[string]string),
		ResourcesToPush:   make(map[string]string),
		IncludedResources: make(map[string]bool),
		Cache:             NewRequestCache(),
	}
}

// Clone returns a copy of sctx sharing its State, which is created for
// top-level calls
func (sctx *Context) Clone() *Context {
	var c Context
	if sctx != nil {
		c = *sctx
	}
	if c.State == nil {
		c.State = NewState()
	}
	return &c
}

// Child derives the context of the nested object held by attribute
func (sctx *Context) Child(attribute, resourceClass string) *Context {
	c := *sctx
	c.ResourceClass = resourceClass
	c.Operation = resource.Operation{}
	c.IRI = ""
	c.ObjectToPopulate = nil
	c.PreviousObject = nil
	c.Attributes = sctx.Attributes.Child(attribute)
	c.outputTransformed = false
	c.inputTransformed = false
	c.depth = sctx.depth + 1
	return &c
}

// Depth is the nesting level; top-level objects are at 0
func (sctx *Context) Depth() int {
	return sctx.depth
}

// AttributeFilter is a tree of allowed attributes. An attribute mapped to
// nil allows every nested attribute.
type AttributeFilter map[string]AttributeFilter

// NewAttributeFilter builds a filter from dotted paths such as
// "name", "author.name".
func NewAttributeFilter(paths ...string) AttributeFilter {
	f := AttributeFilter{}
	for _, path := range paths {
		node := f
		parts := strings.Split(path, ".")
		for i, part := range parts {
			child, ok := node[part]
			if i == len(parts)-1 {
				if !ok {
					node[part] = nil
				}
				break
			}
			if child == nil {
				child = AttributeFilter{}
				node[part] = child
			}
			node = child
		}
	}
	return f
}

// Allows reports whether attribute may be used
func (f AttributeFilter) Allows(attribute string) bool {
	if f == nil {
		return true
	}
	_, ok := f[attribute]
	return ok
}

// Child returns the filter of the attributes nested under attribute
func (f AttributeFilter) Child(attribute string) AttributeFilter {
	if f == nil {
		return nil
	}
	return f[attribute]
}

// HasChildren reports whether attribute restricts nested attributes, which
// asks for the related object to be embedded
func (f AttributeFilter) HasChildren(attribute string) bool {
	return len(f.Child(attribute)) > 0
}

// RequestCache memoizes values computed during one top-level call
type RequestCache struct {
	values map[string]interface{}
}

// NewRequestCache returns an empty cache
func NewRequestCache() *RequestCache {
	return &RequestCache{values: make(map[string]interface{})}
}

// Get returns the value stored under key
func (c *RequestCache) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key
func (c *RequestCache) Set(key string, value interface{}) {
	c.values[key] = value
}

// Len returns the number of cached values
func (c *RequestCache) Len() int {
	return len(c.values)
}
