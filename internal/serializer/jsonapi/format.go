package jsonapi

import (
	"github.com/Foxprodev/core/internal/serializer"
)

// Register adds the jsonapi format to s
func Register(s *serializer.Serializer, items *serializer.ItemNormalizer, debug bool) {
	item := NewItemNormalizer(items, nil)
	s.Register(serializer.FormatJSONAPI, serializer.Format{
		Item:         item,
		Collection:   NewCollectionNormalizer(item),
		Denormalizer: item,
		Errors:       ErrorNormalizer{Debug: debug},
		Encoder:      serializer.JSONEncoder{},
	})
}
