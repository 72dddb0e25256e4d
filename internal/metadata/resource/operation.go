// Package resource describes resources and their operations, and provides
// the factories that build those descriptions from Go declarations and
// configuration files.
package resource

import (
	"encoding/json"
	"net/http"
)

// Kind identifies the shape of an operation
type Kind string

// Operation kinds
const (
	KindGet             Kind = "get"
	KindGetCollection   Kind = "get_collection"
	KindPost            Kind = "post"
	KindPut             Kind = "put"
	KindPatch           Kind = "patch"
	KindDelete          Kind = "delete"
	KindQuery           Kind = "query"
	KindQueryCollection Kind = "query_collection"
	KindMutation        Kind = "mutation"
	KindSubscription    Kind = "subscription"
)

// IsGraphQL reports whether the kind is a GraphQL operation
func (k Kind) IsGraphQL() bool {
	switch k {
	case KindQuery, KindQueryCollection, KindMutation, KindSubscription:
		return true
	}
	return false
}

// IsCollection reports whether the kind returns a collection
func (k Kind) IsCollection() bool {
	return k == KindGetCollection || k == KindQueryCollection
}

// Method returns the HTTP method of REST kinds
func (k Kind) Method() string {
	switch k {
	case KindGet, KindGetCollection:
		return http.MethodGet
	case KindPost:
		return http.MethodPost
	case KindPut:
		return http.MethodPut
	case KindPatch:
		return http.MethodPatch
	case KindDelete:
		return http.MethodDelete
	}
	return ""
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindGet, KindGetCollection, KindPost, KindPut, KindPatch, KindDelete,
		KindQuery, KindQueryCollection, KindMutation, KindSubscription:
		return true
	}
	return false
}

// Link maps an identifier parameter to the identifier property of a class.
// Operations with several links address composite or nested resources.
type Link struct {
	Parameter string `json:"parameter"`
	Class     string `json:"class"`
	Property  string `json:"property"`
}

// OrderClause is one entry of a default ordering
type OrderClause struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// SerializationContext configures a normalization or denormalization pass
type SerializationContext struct {
	Groups         []string `json:"groups,omitempty"`
	SkipNullValues bool     `json:"skip_null_values,omitempty"`
}

// Operation is one exposed action of a resource. It is immutable: every
// With* method returns a modified copy.
type Operation struct {
	s operationState
}

type operationState struct {
	Kind                Kind   `json:"kind"`
	Name                string `json:"name,omitempty"`
	Class               string `json:"class,omitempty"`
	ShortName           string `json:"short_name,omitempty"`
	Description         string `json:"description,omitempty"`
	Method              string `json:"method,omitempty"`
	UriTemplate         string `json:"uri_template,omitempty"`
	Identifiers         []Link `json:"identifiers,omitempty"`
	SubresourceProperty string `json:"subresource_property,omitempty"`

	PaginationEnabled             *bool  `json:"pagination_enabled,omitempty"`
	PaginationType                string `json:"pagination_type,omitempty"`
	PaginationItemsPerPage        *int   `json:"pagination_items_per_page,omitempty"`
	PaginationMaximumItemsPerPage *int   `json:"pagination_maximum_items_per_page,omitempty"`
	PaginationClientEnabled       *bool  `json:"pagination_client_enabled,omitempty"`
	PaginationClientItemsPerPage  *bool  `json:"pagination_client_items_per_page,omitempty"`
	PaginationPartial             *bool  `json:"pagination_partial,omitempty"`
	PaginationClientPartial       *bool  `json:"pagination_client_partial,omitempty"`
	PaginationFetchJoinCollection *bool  `json:"pagination_fetch_join_collection,omitempty"`

	Order                  []OrderClause         `json:"order,omitempty"`
	NormalizationContext   *SerializationContext `json:"normalization_context,omitempty"`
	DenormalizationContext *SerializationContext `json:"denormalization_context,omitempty"`
	Filters                []string              `json:"filters,omitempty"`

	Security                       string `json:"security,omitempty"`
	SecurityMessage                string `json:"security_message,omitempty"`
	SecurityPostDenormalize        string `json:"security_post_denormalize,omitempty"`
	SecurityPostDenormalizeMessage string `json:"security_post_denormalize_message,omitempty"`

	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`

	Read        *bool  `json:"read,omitempty"`
	Deserialize *bool  `json:"deserialize,omitempty"`
	Validate    *bool  `json:"validate,omitempty"`
	Write       *bool  `json:"write,omitempty"`
	Serialize   *bool  `json:"serialize,omitempty"`
	Mercure     *bool  `json:"mercure,omitempty"`
	Messenger   string `json:"messenger,omitempty"`
	Priority    *int   `json:"priority,omitempty"`

	Extra map[string]interface{} `json:"extra,omitempty"`
}

// NewOperation returns an operation of the given kind with every facet unset
func NewOperation(kind Kind) Operation {
	return Operation{s: operationState{Kind: kind}}
}

// Get returns an item GET operation
func Get() Operation { return NewOperation(KindGet) }

// GetCollection returns a collection GET operation
func GetCollection() Operation { return NewOperation(KindGetCollection) }

// Post returns a POST operation
func Post() Operation { return NewOperation(KindPost) }

// Put returns a PUT operation
func Put() Operation { return NewOperation(KindPut) }

// Patch returns a PATCH operation
func Patch() Operation { return NewOperation(KindPatch) }

// Delete returns a DELETE operation
func Delete() Operation { return NewOperation(KindDelete) }

// Query returns a GraphQL item query
func Query() Operation { return NewOperation(KindQuery) }

// QueryCollection returns a GraphQL collection query
func QueryCollection() Operation { return NewOperation(KindQueryCollection) }

// Mutation returns a GraphQL mutation called name
func Mutation(name string) Operation { return NewOperation(KindMutation).WithName(name) }

// Subscription returns a GraphQL subscription
func Subscription() Operation { return NewOperation(KindSubscription) }

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func orTrue(b *bool) bool { return b == nil || *b }

func (o Operation) Kind() Kind { return o.s.Kind }
func (o Operation) Name() string { return o.s.Name }
func (o Operation) Class() string { return o.s.Class }
func (o Operation) ShortName() string { return o.s.ShortName }
func (o Operation) Description() string { return o.s.Description }
func (o Operation) Method() string { return o.s.Method }
func (o Operation) UriTemplate() string { return o.s.UriTemplate }
func (o Operation) SubresourceProperty() string { return o.s.SubresourceProperty }
func (o Operation) IsCollection() bool { return o.s.Kind.IsCollection() }
func (o Operation) IsGraphQL() bool { return o.s.Kind.IsGraphQL() }
func (o Operation) Identifiers() []Link { return append([]Link(nil), o.s.Identifiers...) }
func (o Operation) Order() []OrderClause { return append([]OrderClause(nil), o.s.Order...) }
func (o Operation) Filters() []string { return append([]string(nil), o.s.Filters...) }
func (o Operation) PaginationType() string { return o.s.PaginationType }
func (o Operation) Security() string { return o.s.Security }
func (o Operation) SecurityMessage() string { return o.s.SecurityMessage }
func (o Operation) SecurityPostDenormalize() string {
	return o.s.SecurityPostDenormalize
}
func (o Operation) SecurityPostDenormalizeMessage() string {
	return o.s.SecurityPostDenormalizeMessage
}
func (o Operation) Input() string { return o.s.Input }
func (o Operation) Output() string { return o.s.Output }
func (o Operation) Messenger() string { return o.s.Messenger }

// IsSubresource reports whether the operation walks a chain of parent identifiers
func (o Operation) IsSubresource() bool { return o.s.SubresourceProperty != "" }

func (o Operation) PaginationEnabled() *bool { return o.s.PaginationEnabled }
func (o Operation) PaginationItemsPerPage() *int { return o.s.PaginationItemsPerPage }
func (o Operation) PaginationMaximumItemsPerPage() *int { return o.s.PaginationMaximumItemsPerPage }
func (o Operation) PaginationClientEnabled() *bool { return o.s.PaginationClientEnabled }
func (o Operation) PaginationClientItemsPerPage() *bool { return o.s.PaginationClientItemsPerPage }
func (o Operation) PaginationPartial() *bool { return o.s.PaginationPartial }
func (o Operation) PaginationClientPartial() *bool { return o.s.PaginationClientPartial }
func (o Operation) PaginationFetchJoinCollection() *bool { return o.s.PaginationFetchJoinCollection }

// NormalizationContext returns the context used when reading
func (o Operation) NormalizationContext() SerializationContext {
	if o.s.NormalizationContext == nil {
		return SerializationContext{}
	}
	return *o.s.NormalizationContext
}

// DenormalizationContext returns the context used when writing
func (o Operation) DenormalizationContext() SerializationContext {
	if o.s.DenormalizationContext == nil {
		return SerializationContext{}
	}
	return *o.s.DenormalizationContext
}

// CanRead reports whether the read stage runs (default true)
func (o Operation) CanRead() bool { return orTrue(o.s.Read) }

// CanDeserialize reports whether the deserialize stage runs (default true)
func (o Operation) CanDeserialize() bool { return orTrue(o.s.Deserialize) }

// CanValidate reports whether the validate stage runs (default true)
func (o Operation) CanValidate() bool { return orTrue(o.s.Validate) }

// CanWrite reports whether the write stage runs (default true)
func (o Operation) CanWrite() bool { return orTrue(o.s.Write) }

// CanSerialize reports whether the serialize stage runs (default true)
func (o Operation) CanSerialize() bool { return orTrue(o.s.Serialize) }

// Mercure reports whether updates are published to a Mercure hub
func (o Operation) Mercure() bool { return o.s.Mercure != nil && *o.s.Mercure }

// Priority orders operations and extensions; higher runs first
func (o Operation) Priority() int {
	if o.s.Priority == nil {
		return 0
	}
	return *o.s.Priority
}

// Extra returns a free-form facet
func (o Operation) Extra(key string) (interface{}, bool) {
	v, ok := o.s.Extra[key]
	return v, ok
}

func (o Operation) WithKind(k Kind) Operation {
	o.s.Kind = k
	return o
}

func (o Operation) WithName(name string) Operation {
	o.s.Name = name
	return o
}

func (o Operation) WithClass(class string) Operation {
	o.s.Class = class
	return o
}

func (o Operation) WithShortName(name string) Operation {
	o.s.ShortName = name
	return o
}

func (o Operation) WithDescription(d string) Operation {
	o.s.Description = d
	return o
}

func (o Operation) WithMethod(m string) Operation {
	o.s.Method = m
	return o
}

func (o Operation) WithUriTemplate(t string) Operation {
	o.s.UriTemplate = t
	return o
}

func (o Operation) WithPaginationType(t string) Operation {
	o.s.PaginationType = t
	return o
}

func (o Operation) WithSecurity(expr string) Operation {
	o.s.Security = expr
	return o
}

func (o Operation) WithSecurityMessage(m string) Operation {
	o.s.SecurityMessage = m
	return o
}

func (o Operation) WithInput(class string) Operation {
	o.s.Input = class
	return o
}

func (o Operation) WithOutput(class string) Operation {
	o.s.Output = class
	return o
}

func (o Operation) WithMessenger(m string) Operation {
	o.s.Messenger = m
	return o
}

func (o Operation) WithSecurityPostDenormalize(expr string) Operation {
	o.s.SecurityPostDenormalize = expr
	return o
}

func (o Operation) WithSecurityPostDenormalizeMessage(m string) Operation {
	o.s.SecurityPostDenormalizeMessage = m
	return o
}

func (o Operation) WithSubresourceProperty(property string) Operation {
	o.s.SubresourceProperty = property
	return o
}

func (o Operation) WithIdentifiers(links ...Link) Operation {
	o.s.Identifiers = append([]Link(nil), links...)
	return o
}

func (o Operation) WithOrder(clauses ...OrderClause) Operation {
	o.s.Order = append([]OrderClause(nil), clauses...)
	return o
}

func (o Operation) WithFilters(ids ...string) Operation {
	o.s.Filters = append([]string(nil), ids...)
	return o
}

func (o Operation) WithNormalizationContext(c SerializationContext) Operation {
	c.Groups = append([]string(nil), c.Groups...)
	o.s.NormalizationContext = &c
	return o
}

func (o Operation) WithDenormalizationContext(c SerializationContext) Operation {
	c.Groups = append([]string(nil), c.Groups...)
	o.s.DenormalizationContext = &c
	return o
}

func (o Operation) WithPaginationEnabled(b bool) Operation {
	o.s.PaginationEnabled = boolPtr(b)
	return o
}

func (o Operation) WithPaginationItemsPerPage(n int) Operation {
	o.s.PaginationItemsPerPage = intPtr(n)
	return o
}

func (o Operation) WithPaginationMaximumItemsPerPage(n int) Operation {
	o.s.PaginationMaximumItemsPerPage = intPtr(n)
	return o
}

func (o Operation) WithPaginationClientEnabled(b bool) Operation {
	o.s.PaginationClientEnabled = boolPtr(b)
	return o
}

func (o Operation) WithPaginationClientItemsPerPage(b bool) Operation {
	o.s.PaginationClientItemsPerPage = boolPtr(b)
	return o
}

func (o Operation) WithPaginationPartial(b bool) Operation {
	o.s.PaginationPartial = boolPtr(b)
	return o
}

func (o Operation) WithPaginationClientPartial(b bool) Operation {
	o.s.PaginationClientPartial = boolPtr(b)
	return o
}

func (o Operation) WithPaginationFetchJoinCollection(b bool) Operation {
	o.s.PaginationFetchJoinCollection = boolPtr(b)
	return o
}

func (o Operation) WithRead(b bool) Operation {
	o.s.Read = boolPtr(b)
	return o
}

func (o Operation) WithDeserialize(b bool) Operation {
	o.s.Deserialize = boolPtr(b)
	return o
}

func (o Operation) WithValidate(b bool) Operation {
	o.s.Validate = boolPtr(b)
	return o
}

func (o Operation) WithWrite(b bool) Operation {
	o.s.Write = boolPtr(b)
	return o
}

func (o Operation) WithSerialize(b bool) Operation {
	o.s.Serialize = boolPtr(b)
	return o
}

func (o Operation) WithMercure(b bool) Operation {
	o.s.Mercure = boolPtr(b)
	return o
}

func (o Operation) WithPriority(p int) Operation {
	o.s.Priority = intPtr(p)
	return o
}

func (o Operation) WithExtra(key string, value interface{}) Operation {
	extra := make(map[string]interface{}, len(o.s.Extra)+1)
	for k, v := range o.s.Extra {
		extra[k] = v
	}
	extra[key] = value
	o.s.Extra = extra
	return o
}

// WithDefaults fills the facets of o that are still unset with those of
// template. Kind and name are never inherited.
func (o Operation) WithDefaults(template Operation) Operation {
	t := template.s
	s := &o.s

	fillString(&s.Class, t.Class)
	fillString(&s.ShortName, t.ShortName)
	fillString(&s.Description, t.Description)
	fillString(&s.Method, t.Method)
	fillString(&s.UriTemplate, t.UriTemplate)
	fillString(&s.SubresourceProperty, t.SubresourceProperty)
	fillString(&s.PaginationType, t.PaginationType)
	fillString(&s.Security, t.Security)
	fillString(&s.SecurityMessage, t.SecurityMessage)
	fillString(&s.SecurityPostDenormalize, t.SecurityPostDenormalize)
	fillString(&s.SecurityPostDenormalizeMessage, t.SecurityPostDenormalizeMessage)
	fillString(&s.Input, t.Input)
	fillString(&s.Output, t.Output)
	fillString(&s.Messenger, t.Messenger)

	fillBool(&s.PaginationEnabled, t.PaginationEnabled)
	fillBool(&s.PaginationClientEnabled, t.PaginationClientEnabled)
	fillBool(&s.PaginationClientItemsPerPage, t.PaginationClientItemsPerPage)
	fillBool(&s.PaginationPartial, t.PaginationPartial)
	fillBool(&s.PaginationClientPartial, t.PaginationClientPartial)
	fillBool(&s.PaginationFetchJoinCollection, t.PaginationFetchJoinCollection)
	fillBool(&s.Read, t.Read)
	fillBool(&s.Deserialize, t.Deserialize)
	fillBool(&s.Validate, t.Validate)
	fillBool(&s.Write, t.Write)
	fillBool(&s.Serialize, t.Serialize)
	fillBool(&s.Mercure, t.Mercure)

	fillInt(&s.PaginationItemsPerPage, t.PaginationItemsPerPage)
	fillInt(&s.PaginationMaximumItemsPerPage, t.PaginationMaximumItemsPerPage)
	fillInt(&s.Priority, t.Priority)

	if s.Identifiers == nil {
		s.Identifiers = t.Identifiers
	}
	if s.Order == nil {
		s.Order = t.Order
	}
	if s.Filters == nil {
		s.Filters = t.Filters
	}
	if s.NormalizationContext == nil {
		s.NormalizationContext = t.NormalizationContext
	}
	if s.DenormalizationContext == nil {
		s.DenormalizationContext = t.DenormalizationContext
	}
	for k, v := range t.Extra {
		if _, ok := s.Extra[k]; !ok {
			o = o.WithExtra(k, v)
		}
	}
	return o
}

func fillString(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

func fillBool(dst **bool, src *bool) {
	if *dst == nil {
		*dst = src
	}
}

func fillInt(dst **int, src *int) {
	if *dst == nil {
		*dst = src
	}
}

// MarshalJSON encodes the operation for the cache pool
func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.s)
}

// UnmarshalJSON decodes an operation read back from the cache pool
func (o *Operation) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &o.s)
}
