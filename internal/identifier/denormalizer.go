// Package identifier converts identifiers read from URIs into typed values.
package identifier

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/google/uuid"
)

// Denormalizer converts one raw identifier value to the type of its property
type Denormalizer interface {
	Supports(value interface{}, typ property.Type) bool
	Denormalize(value interface{}, typ property.Type) (interface{}, error)
}

// IntegerDenormalizer converts numeric strings to int
type IntegerDenormalizer struct{}

func (IntegerDenormalizer) Supports(value interface{}, typ property.Type) bool {
	_, ok := value.(string)
	return ok && typ.Builtin == property.BuiltinInt
}

func (IntegerDenormalizer) Denormalize(value interface{}, _ property.Type) (interface{}, error) {
	n, err := strconv.Atoi(value.(string))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an integer", apierr.ErrInvalidIdentifier, value)
	}
	return n, nil
}

// DateTimeFormats are tried in order by DateTimeDenormalizer
var DateTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DateTimeDenormalizer converts date strings to time.Time
type DateTimeDenormalizer struct{}

func (DateTimeDenormalizer) Supports(value interface{}, typ property.Type) bool {
	_, ok := value.(string)
	return ok && typ.Class == property.ClassDateTime
}

func (DateTimeDenormalizer) Denormalize(value interface{}, _ property.Type) (interface{}, error) {
	s := value.(string)
	for _, layout := range DateTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not a date", apierr.ErrInvalidIdentifier, s)
}

// UUIDDenormalizer converts UUID strings to uuid.UUID
type UUIDDenormalizer struct{}

func (UUIDDenormalizer) Supports(value interface{}, typ property.Type) bool {
	_, ok := value.(string)
	return ok && typ.Class == property.ClassUUID
}

func (UUIDDenormalizer) Denormalize(value interface{}, _ property.Type) (interface{}, error) {
	id, err := uuid.Parse(value.(string))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apierr.ErrInvalidIdentifier, err)
	}
	return id, nil
}

// DefaultDenormalizers returns the built-in denormalizers
func DefaultDenormalizers() []Denormalizer {
	return []Denormalizer{IntegerDenormalizer{}, DateTimeDenormalizer{}, UUIDDenormalizer{}}
}
