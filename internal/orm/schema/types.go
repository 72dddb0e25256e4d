// Package schema describes how resource classes map onto database tables:
// columns, primary key and relationships between resources.
package schema

import (
	"fmt"

	"github.com/Foxprodev/core/internal/class"
	ustrings "github.com/Foxprodev/core/internal/util/strings"
)

// PrimitiveType represents the column types the data layer knows how to scan
type PrimitiveType int

const (
	// Text types
	TypeString PrimitiveType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeBigInt
	TypeFloat

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate

	// Unique identifiers
	TypeUUID

	// JSON types
	TypeJSON
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType converts a string to a PrimitiveType
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int":
		return TypeInt, nil
	case "bigint":
		return TypeBigInt, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "uuid":
		return TypeUUID, nil
	case "json":
		return TypeJSON, nil
	default:
		return 0, fmt.Errorf("unknown primitive type: %s", s)
	}
}

// Field represents one mapped property
type Field struct {
	// Name is the property name
	Name     string
	Column   string
	Type     PrimitiveType
	Nullable bool
	Primary  bool
}

// RelationType represents the type of relationship
type RelationType int

const (
	RelationshipBelongsTo RelationType = iota
	RelationshipHasMany
	RelationshipHasManyThrough
	RelationshipHasOne
)

// String returns the string representation of the relationship type
func (r RelationType) String() string {
	switch r {
	case RelationshipBelongsTo:
		return "belongs_to"
	case RelationshipHasMany:
		return "has_many"
	case RelationshipHasManyThrough:
		return "has_many_through"
	case RelationshipHasOne:
		return "has_one"
	default:
		return "unknown"
	}
}

// ParseRelationType converts a string to a RelationType
func ParseRelationType(s string) (RelationType, error) {
	switch s {
	case "belongs_to":
		return RelationshipBelongsTo, nil
	case "has_many":
		return RelationshipHasMany, nil
	case "has_many_through":
		return RelationshipHasManyThrough, nil
	case "has_one":
		return RelationshipHasOne, nil
	default:
		return 0, fmt.Errorf("unknown relationship type: %s", s)
	}
}

// IsToMany reports whether the relationship yields a collection
func (r RelationType) IsToMany() bool {
	return r == RelationshipHasMany || r == RelationshipHasManyThrough
}

// Relationship represents a relationship between resources
type Relationship struct {
	Type RelationType
	// TargetResource is the resource class on the other side
	TargetResource string
	// FieldName is the property holding the relation
	FieldName string
	Nullable  bool

	// ForeignKey is the column on the owning side: on this table for
	// belongs_to, on the target (or join) table otherwise
	ForeignKey string

	// For has_many
	OrderBy string

	// For has_many_through
	JoinTable      string
	AssociationKey string
}

// ResourceSchema represents the table mapping of one resource class
type ResourceSchema struct {
	Name       string
	TableName  string
	PrimaryKey string

	Fields        map[string]*Field
	FieldOrder    []string
	Relationships map[string]*Relationship
}

// NewResourceSchema creates a new ResourceSchema
func NewResourceSchema(name string) *ResourceSchema {
	return &ResourceSchema{
		Name:          name,
		Fields:        make(map[string]*Field),
		Relationships: make(map[string]*Relationship),
		TableName:     ToTableName(name),
	}
}

// AddField adds a field, keeping declaration order
func (r *ResourceSchema) AddField(field *Field) {
	if _, exists := r.Fields[field.Name]; !exists {
		r.FieldOrder = append(r.FieldOrder, field.Name)
	}
	if field.Column == "" {
		field.Column = ustrings.ToSnakeCase(field.Name)
	}
	if field.Primary {
		r.PrimaryKey = field.Name
	}
	r.Fields[field.Name] = field
}

// AddRelationship adds a relationship, filling the conventional key names
func (r *ResourceSchema) AddRelationship(rel *Relationship) {
	switch rel.Type {
	case RelationshipBelongsTo:
		if rel.ForeignKey == "" {
			rel.ForeignKey = ustrings.ToSnakeCase(rel.FieldName) + "_id"
		}
	case RelationshipHasMany, RelationshipHasOne:
		if rel.ForeignKey == "" {
			rel.ForeignKey = ustrings.ToSnakeCase(class.ShortName(r.Name)) + "_id"
		}
	case RelationshipHasManyThrough:
		if rel.ForeignKey == "" {
			rel.ForeignKey = ustrings.ToSnakeCase(class.ShortName(r.Name)) + "_id"
		}
		if rel.AssociationKey == "" {
			rel.AssociationKey = ustrings.ToSnakeCase(class.ShortName(rel.TargetResource)) + "_id"
		}
		if rel.JoinTable == "" {
			rel.JoinTable = ustrings.ToSnakeCase(class.ShortName(r.Name)) + "_" + ToTableName(rel.TargetResource)
		}
	}
	r.Relationships[rel.FieldName] = rel
}

// GetPrimaryKey returns the primary key field
func (r *ResourceSchema) GetPrimaryKey() (*Field, error) {
	if field, ok := r.Fields[r.PrimaryKey]; ok {
		return field, nil
	}
	return nil, fmt.Errorf("resource %s has no primary key", r.Name)
}

// PrimaryKeyColumn returns the primary key column, "id" when none is declared
func (r *ResourceSchema) PrimaryKeyColumn() string {
	if field, ok := r.Fields[r.PrimaryKey]; ok {
		return field.Column
	}
	return "id"
}

// HasField returns true if the resource has a field with the given name
func (r *ResourceSchema) HasField(name string) bool {
	_, exists := r.Fields[name]
	return exists
}

// HasRelationship returns true if the resource has a relationship with the given name
func (r *ResourceSchema) HasRelationship(name string) bool {
	_, exists := r.Relationships[name]
	return exists
}

// Column resolves a property to its column. belongs_to relations resolve to
// their foreign key.
func (r *ResourceSchema) Column(property string) (string, bool) {
	if field, ok := r.Fields[property]; ok {
		return field.Column, true
	}
	if rel, ok := r.Relationships[property]; ok && rel.Type == RelationshipBelongsTo {
		return rel.ForeignKey, true
	}
	return "", false
}

// FieldByColumn returns the field stored in column
func (r *ResourceSchema) FieldByColumn(column string) (*Field, bool) {
	for _, name := range r.FieldOrder {
		if field := r.Fields[name]; field.Column == column {
			return field, true
		}
	}
	return nil, false
}

// RelationshipByForeignKey returns the belongs_to relationship stored in column
func (r *ResourceSchema) RelationshipByForeignKey(column string) (*Relationship, bool) {
	for _, rel := range r.Relationships {
		if rel.Type == RelationshipBelongsTo && rel.ForeignKey == column {
			return rel, true
		}
	}
	return nil, false
}

// ToTableName converts a resource name to a table name (snake_case plural)
func ToTableName(resourceName string) string {
	return ustrings.Pluralize(ustrings.ToSnakeCase(class.ShortName(resourceName)))
}
