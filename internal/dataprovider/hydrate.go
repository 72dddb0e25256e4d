package dataprovider

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/identifier"
	"github.com/Foxprodev/core/internal/orm/schema"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// Hydrator turns rows keyed by column into resource structs
type Hydrator struct {
	classes *class.Registry
	schemas *schema.Registry
}

// NewHydrator creates a hydrator
func NewHydrator(classes *class.Registry, schemas *schema.Registry) *Hydrator {
	return &Hydrator{classes: classes, schemas: schemas}
}

// Hydrate builds a *T of resourceClass from one row. Eager loaded
// relations found in the row are hydrated too; a belongs_to foreign key
// without a loaded relation becomes a reference holding only the key.
func (h *Hydrator) Hydrate(resourceClass string, row map[string]interface{}) (interface{}, error) {
	sch, ok := h.schemas.Get(resourceClass)
	if !ok {
		return nil, fmt.Errorf("no schema for resource class %s", resourceClass)
	}
	object, err := h.classes.New(resourceClass)
	if err != nil {
		return nil, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           object,
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			bytesToStringHook,
			stringToTimeHook,
			stringToUUIDHook,
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(h.properties(sch, row)); err != nil {
		return nil, fmt.Errorf("failed to hydrate %s: %w", resourceClass, err)
	}
	return object, nil
}

// Rows hydrates every row, in order
func (h *Hydrator) Rows(resourceClass string) func(ctx context.Context, rows []map[string]interface{}) ([]interface{}, error) {
	return func(_ context.Context, rows []map[string]interface{}) ([]interface{}, error) {
		items := make([]interface{}, 0, len(rows))
		for _, row := range rows {
			item, err := h.Hydrate(resourceClass, row)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}
}

// properties re-keys a row from columns to property names
func (h *Hydrator) properties(sch *schema.ResourceSchema, row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for _, name := range sch.FieldOrder {
		field := sch.Fields[name]
		if v, ok := row[field.Column]; ok && v != nil {
			out[name] = v
		}
	}

	for name, rel := range sch.Relationships {
		target, ok := h.schemas.Get(rel.TargetResource)
		if !ok {
			continue
		}
		if loaded, ok := row[name]; ok {
			switch v := loaded.(type) {
			case map[string]interface{}:
				out[name] = h.properties(target, v)
			case []map[string]interface{}:
				nested := make([]interface{}, len(v))
				for i, r := range v {
					nested[i] = h.properties(target, r)
				}
				out[name] = nested
			}
			continue
		}
		if rel.Type != schema.RelationshipBelongsTo {
			continue
		}
		if fk, ok := row[rel.ForeignKey]; ok && fk != nil {
			out[name] = map[string]interface{}{primaryKey(target): fk}
		}
	}
	return out
}

func primaryKey(sch *schema.ResourceSchema) string {
	if sch.PrimaryKey != "" {
		return sch.PrimaryKey
	}
	return "id"
}

func bytesToStringHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	b, ok := data.([]byte)
	if !ok || to.Kind() == reflect.Slice {
		return data, nil
	}
	return string(b), nil
}

func stringToTimeHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != timeType {
		return data, nil
	}
	s := reflect.ValueOf(data).String()
	for _, layout := range identifier.DateTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as a date", s)
}

func stringToUUIDHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != uuidType {
		return data, nil
	}
	return uuid.Parse(reflect.ValueOf(data).String())
}
