package property

import "encoding/json"

// NameCollection is an ordered set of property names. Order drives the
// order of serialized fields.
type NameCollection struct {
	names []string
}

// NewNameCollection builds a collection, dropping duplicates
func NewNameCollection(names ...string) NameCollection {
	var c NameCollection
	for _, n := range names {
		c = c.With(n)
	}
	return c
}

// With returns a copy with name appended unless already present
func (c NameCollection) With(name string) NameCollection {
	if c.Contains(name) {
		return c
	}
	names := make([]string, len(c.names), len(c.names)+1)
	copy(names, c.names)
	return NameCollection{names: append(names, name)}
}

// Contains reports whether name is in the collection
func (c NameCollection) Contains(name string) bool {
	for _, n := range c.names {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns the names in order
func (c NameCollection) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of names
func (c NameCollection) Len() int {
	return len(c.names)
}

func (c NameCollection) MarshalJSON() ([]byte, error) {
	if c.names == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.names)
}

func (c *NameCollection) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.names)
}
