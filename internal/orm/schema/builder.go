package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Foxprodev/core/internal/class"
	"github.com/google/uuid"
)

var (
	timeType      = reflect.TypeOf(time.Time{})
	uuidType      = reflect.TypeOf(uuid.UUID{})
	rawJSONType   = reflect.TypeOf(json.RawMessage{})
	tableNamerTyp = reflect.TypeOf((*TableNamer)(nil)).Elem()
)

// TableNamer lets a resource struct override its table name
type TableNamer interface {
	TableName() string
}

// Builder builds ResourceSchemas from the struct types of a class registry.
//
// Struct tags:
//
//	db:"column[,primary][,type=<primitive>]"   db:"-" excludes the field
//	rel:"belongs_to|has_many|has_one|has_many_through[,fk=..][,order=..][,table=..][,key=..]"
//
// Fields typed as another resource class become belongs_to (single) or
// has_many (slice) relationships when they carry no rel tag.
type Builder struct {
	registry *class.Registry
}

// NewBuilder creates a new schema builder
func NewBuilder(registry *class.Registry) *Builder {
	return &Builder{registry: registry}
}

// Build builds the schema of one registered class
func (b *Builder) Build(name string) (*ResourceSchema, error) {
	t, err := b.registry.Type(name)
	if err != nil {
		return nil, err
	}

	schema := NewResourceSchema(name)
	if namer, ok := tableNamer(t); ok {
		schema.TableName = namer.TableName()
	}

	for _, f := range class.Fields(t) {
		dbTag := f.Tag.Get("db")
		if dbTag == "-" {
			continue
		}

		relTag := f.Tag.Get("rel")
		target, isResource := b.resourceTarget(f.Type)
		if relTag != "" || isResource {
			rel, err := buildRelationship(f, relTag, target)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
			}
			schema.AddRelationship(rel)
			continue
		}

		field, err := buildField(f, dbTag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
		}
		schema.AddField(field)
	}

	if schema.PrimaryKey == "" && schema.HasField("id") {
		schema.Fields["id"].Primary = true
		schema.PrimaryKey = "id"
	}

	return schema, nil
}

func (b *Builder) resourceTarget(t reflect.Type) (string, bool) {
	name, ok := b.registry.ClassOfType(t)
	if !ok || !b.registry.IsResourceClass(name) {
		return "", false
	}
	return name, true
}

func buildField(f class.Field, tag string) (*Field, error) {
	field := &Field{Name: f.Name}

	parts := strings.Split(tag, ",")
	field.Column = strings.TrimSpace(parts[0])

	typ, nullable := inferType(f.Type)
	field.Type = typ
	field.Nullable = nullable

	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "primary":
			field.Primary = true
		case opt == "null":
			field.Nullable = true
		case strings.HasPrefix(opt, "type="):
			pt, err := ParsePrimitiveType(strings.TrimPrefix(opt, "type="))
			if err != nil {
				return nil, err
			}
			field.Type = pt
		case opt == "":
		default:
			return nil, fmt.Errorf("unknown db tag option %q", opt)
		}
	}

	return field, nil
}

func buildRelationship(f class.Field, tag, target string) (*Relationship, error) {
	rel := &Relationship{FieldName: f.Name, TargetResource: target}

	t := f.Type
	rel.Nullable = t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice {
		rel.Type = RelationshipHasMany
	} else {
		rel.Type = RelationshipBelongsTo
	}

	if tag == "" {
		if target == "" {
			return nil, fmt.Errorf("relationship target is not a resource class")
		}
		return rel, nil
	}

	parts := strings.Split(tag, ",")
	if kind := strings.TrimSpace(parts[0]); kind != "" {
		rt, err := ParseRelationType(kind)
		if err != nil {
			return nil, err
		}
		rel.Type = rt
	}

	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "fk":
			rel.ForeignKey = value
		case "order":
			rel.OrderBy = value
		case "table":
			rel.JoinTable = value
		case "key":
			rel.AssociationKey = value
		case "target":
			rel.TargetResource = value
		case "":
		default:
			return nil, fmt.Errorf("unknown rel tag option %q", key)
		}
	}

	if rel.TargetResource == "" {
		return nil, fmt.Errorf("relationship target is not a resource class")
	}
	return rel, nil
}

func inferType(t reflect.Type) (PrimitiveType, bool) {
	nullable := false
	for t.Kind() == reflect.Ptr {
		nullable = true
		t = t.Elem()
	}

	switch {
	case t == timeType:
		return TypeTimestamp, nullable
	case t == uuidType:
		return TypeUUID, nullable
	case t == rawJSONType:
		return TypeJSON, nullable
	}

	switch t.Kind() {
	case reflect.String:
		return TypeString, nullable
	case reflect.Int64, reflect.Uint64:
		return TypeBigInt, nullable
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return TypeInt, nullable
	case reflect.Float32, reflect.Float64:
		return TypeFloat, nullable
	case reflect.Bool:
		return TypeBool, nullable
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeText, nullable
		}
		return TypeJSON, true
	default:
		return TypeJSON, true
	}
}

func tableNamer(t reflect.Type) (TableNamer, bool) {
	switch {
	case t.Implements(tableNamerTyp):
		return reflect.New(t).Elem().Interface().(TableNamer), true
	case reflect.PointerTo(t).Implements(tableNamerTyp):
		return reflect.New(t).Interface().(TableNamer), true
	}
	return nil, false
}
