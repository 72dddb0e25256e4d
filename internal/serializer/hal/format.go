package hal

import (
	"github.com/Foxprodev/core/internal/serializer"
)

// Register adds the jsonhal format to s
func Register(s *serializer.Serializer, items *serializer.ItemNormalizer, debug bool) {
	item := NewItemNormalizer(items)
	s.Register(serializer.FormatHAL, serializer.Format{
		Item:         item,
		Collection:   NewCollectionNormalizer(item),
		Denormalizer: items,
		Errors:       serializer.ProblemNormalizer{Debug: debug},
		Encoder:      serializer.JSONEncoder{},
	})
}
