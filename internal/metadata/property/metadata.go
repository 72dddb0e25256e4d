package property

import (
	"bytes"
	"encoding/json"
)

// Metadata describes one property of a resource class. It is immutable:
// With* methods return a modified copy. Boolean facets are tri-state so a
// decorator can tell an unset facet from an explicit false.
type Metadata struct {
	s state
}

type state struct {
	Type                    *Type                  `json:"type,omitempty"`
	Description             string                 `json:"description,omitempty"`
	Readable                *bool                  `json:"readable,omitempty"`
	Writable                *bool                  `json:"writable,omitempty"`
	ReadableLink            *bool                  `json:"readable_link,omitempty"`
	WritableLink            *bool                  `json:"writable_link,omitempty"`
	Required                *bool                  `json:"required,omitempty"`
	Identifier              *bool                  `json:"identifier,omitempty"`
	Initializable           *bool                  `json:"initializable,omitempty"`
	Default                 interface{}            `json:"default,omitempty"`
	Example                 interface{}            `json:"example,omitempty"`
	Security                string                 `json:"security,omitempty"`
	SecurityPostDenormalize string                 `json:"security_post_denormalize,omitempty"`
	Groups                  []string               `json:"groups,omitempty"`
	Iris                    []string               `json:"iris,omitempty"`
	Extra                   map[string]interface{} `json:"extra,omitempty"`
}

// New returns metadata with every facet unset
func New() Metadata {
	return Metadata{}
}

func boolPtr(b bool) *bool {
	return &b
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// Type returns the property type, or nil when unknown
func (m Metadata) Type() *Type {
	if m.s.Type == nil {
		return nil
	}
	t := *m.s.Type
	return &t
}

func (m Metadata) Description() string { return m.s.Description }
func (m Metadata) Default() interface{} { return m.s.Default }
func (m Metadata) Example() interface{} { return m.s.Example }
func (m Metadata) Security() string { return m.s.Security }
func (m Metadata) SecurityPostDenormalize() string { return m.s.SecurityPostDenormalize }
func (m Metadata) Groups() []string { return append([]string(nil), m.s.Groups...) }
func (m Metadata) Iris() []string { return append([]string(nil), m.s.Iris...) }

// Extra returns a free-form facet set through WithExtra
func (m Metadata) Extra(key string) (interface{}, bool) {
	v, ok := m.s.Extra[key]
	return v, ok
}

func (m Metadata) IsReadable() bool { return isTrue(m.s.Readable) }
func (m Metadata) IsWritable() bool { return isTrue(m.s.Writable) }
func (m Metadata) IsReadableLink() bool { return isTrue(m.s.ReadableLink) }
func (m Metadata) IsWritableLink() bool { return isTrue(m.s.WritableLink) }
func (m Metadata) IsRequired() bool { return isTrue(m.s.Required) }
func (m Metadata) IsIdentifier() bool { return isTrue(m.s.Identifier) }
func (m Metadata) IsInitializable() bool { return isTrue(m.s.Initializable) }
func (m Metadata) HasDefault() bool { return m.s.Default != nil }

// Readable returns the raw tri-state facet
func (m Metadata) Readable() *bool { return m.s.Readable }

// Writable returns the raw tri-state facet
func (m Metadata) Writable() *bool { return m.s.Writable }

// ReadableLink returns the raw tri-state facet
func (m Metadata) ReadableLink() *bool { return m.s.ReadableLink }

// WritableLink returns the raw tri-state facet
func (m Metadata) WritableLink() *bool { return m.s.WritableLink }

// Identifier returns the raw tri-state facet
func (m Metadata) Identifier() *bool { return m.s.Identifier }

func (m Metadata) WithType(t Type) Metadata {
	m.s.Type = &t
	m.s.canonicalize()
	return m
}

func (m Metadata) WithDescription(d string) Metadata {
	m.s.Description = d
	return m
}

func (m Metadata) WithReadable(b bool) Metadata {
	m.s.Readable = boolPtr(b)
	return m
}

func (m Metadata) WithWritable(b bool) Metadata {
	m.s.Writable = boolPtr(b)
	return m
}

func (m Metadata) WithReadableLink(b bool) Metadata {
	m.s.ReadableLink = boolPtr(b)
	return m
}

func (m Metadata) WithWritableLink(b bool) Metadata {
	m.s.WritableLink = boolPtr(b)
	return m
}

func (m Metadata) WithRequired(b bool) Metadata {
	m.s.Required = boolPtr(b)
	return m
}

func (m Metadata) WithIdentifier(b bool) Metadata {
	m.s.Identifier = boolPtr(b)
	return m
}

func (m Metadata) WithInitializable(b bool) Metadata {
	m.s.Initializable = boolPtr(b)
	return m
}

func (m Metadata) WithDefault(v interface{}) Metadata {
	m.s.Default = canonical(v, m.s.Type)
	return m
}

func (m Metadata) WithExample(v interface{}) Metadata {
	m.s.Example = canonical(v, m.s.Type)
	return m
}

func (m Metadata) WithSecurity(expr string) Metadata {
	m.s.Security = expr
	return m
}

func (m Metadata) WithSecurityPostDenormalize(expr string) Metadata {
	m.s.SecurityPostDenormalize = expr
	return m
}

func (m Metadata) WithGroups(groups ...string) Metadata {
	m.s.Groups = append([]string(nil), groups...)
	return m
}

func (m Metadata) WithIris(iris ...string) Metadata {
	m.s.Iris = append([]string(nil), iris...)
	return m
}

func (m Metadata) WithExtra(key string, value interface{}) Metadata {
	extra := make(map[string]interface{}, len(m.s.Extra)+1)
	for k, v := range m.s.Extra {
		extra[k] = v
	}
	extra[key] = canonical(value, nil)
	m.s.Extra = extra
	return m
}

// Merge fills the facets of m that are still unset with the ones from other.
// Facets already set on m are never overwritten.
func (m Metadata) Merge(other Metadata) Metadata {
	o := other.s
	if m.s.Type == nil && o.Type != nil {
		t := *o.Type
		m.s.Type = &t
	}
	if m.s.Description == "" {
		m.s.Description = o.Description
	}
	if m.s.Readable == nil {
		m.s.Readable = o.Readable
	}
	if m.s.Writable == nil {
		m.s.Writable = o.Writable
	}
	if m.s.ReadableLink == nil {
		m.s.ReadableLink = o.ReadableLink
	}
	if m.s.WritableLink == nil {
		m.s.WritableLink = o.WritableLink
	}
	if m.s.Required == nil {
		m.s.Required = o.Required
	}
	if m.s.Identifier == nil {
		m.s.Identifier = o.Identifier
	}
	if m.s.Initializable == nil {
		m.s.Initializable = o.Initializable
	}
	if m.s.Default == nil {
		m.s.Default = o.Default
	}
	if m.s.Example == nil {
		m.s.Example = o.Example
	}
	if m.s.Security == "" {
		m.s.Security = o.Security
	}
	if m.s.SecurityPostDenormalize == "" {
		m.s.SecurityPostDenormalize = o.SecurityPostDenormalize
	}
	if m.s.Groups == nil {
		m.s.Groups = o.Groups
	}
	if m.s.Iris == nil {
		m.s.Iris = o.Iris
	}
	for k, v := range o.Extra {
		if _, ok := m.s.Extra[k]; !ok {
			m = m.WithExtra(k, v)
		}
	}
	m.s.canonicalize()
	return m
}

// MarshalJSON encodes the metadata for the cache pool
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.s)
}

// UnmarshalJSON decodes metadata read back from the cache pool. Numbers
// are decoded back into the form With* methods store them in.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m.s); err != nil {
		return err
	}
	m.s.canonicalize()
	m.s.Extra = canonicalExtra(m.s.Extra)
	return nil
}
