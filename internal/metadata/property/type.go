package property

import "fmt"

// Builtin type names
const (
	BuiltinInt    = "int"
	BuiltinFloat  = "float"
	BuiltinString = "string"
	BuiltinBool   = "bool"
	BuiltinObject = "object"
	BuiltinArray  = "array"
	BuiltinNull   = "null"
)

// Well-known classes for non-resource objects
const (
	ClassDateTime = "time.Time"
	ClassUUID     = "uuid.UUID"
)

// Type describes the type of a property. Collections carry the type of
// their keys and values.
type Type struct {
	Builtin    string `json:"builtin"`
	Nullable   bool   `json:"nullable,omitempty"`
	Class      string `json:"class,omitempty"`
	Collection bool   `json:"collection,omitempty"`
	KeyType    *Type  `json:"key_type,omitempty"`
	ValueType  *Type  `json:"value_type,omitempty"`
}

// NewType returns a scalar or object type
func NewType(builtin string, nullable bool, class string) Type {
	return Type{Builtin: builtin, Nullable: nullable, Class: class}
}

// NewCollectionType returns an array type of value, keyed by key (nil means int keys).
func NewCollectionType(nullable bool, key, value *Type) Type {
	if key == nil {
		k := NewType(BuiltinInt, false, "")
		key = &k
	}
	return Type{Builtin: BuiltinArray, Nullable: nullable, Collection: true, KeyType: key, ValueType: value}
}

// IsCollection reports whether the type holds several values
func (t Type) IsCollection() bool {
	return t.Collection
}

// IsObject reports whether the type is a class instance
func (t Type) IsObject() bool {
	return t.Builtin == BuiltinObject
}

// ClassName returns the class of the type, or of the collection value type.
func (t Type) ClassName() string {
	if t.Collection && t.ValueType != nil {
		return t.ValueType.Class
	}
	return t.Class
}

// Elem returns the collection value type, or the type itself.
func (t Type) Elem() Type {
	if t.Collection && t.ValueType != nil {
		return *t.ValueType
	}
	return t
}

func (t Type) String() string {
	s := t.Builtin
	if t.Class != "" {
		s = t.Class
	}
	if t.Collection {
		value := "mixed"
		if t.ValueType != nil {
			value = t.ValueType.String()
		}
		s = fmt.Sprintf("%s[]", value)
	}
	if t.Nullable {
		s = "?" + s
	}
	return s
}
