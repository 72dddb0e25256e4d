package stage

import (
	"context"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// DeserializeStage builds the object of a mutation from its input,
// updating the object read when there is one
type DeserializeStage struct {
	denormalizer serializer.Denormalizer
}

// NewDeserializeStage creates the stage
func NewDeserializeStage(denormalizer serializer.Denormalizer) *DeserializeStage {
	return &DeserializeStage{denormalizer: denormalizer}
}

// Apply returns the denormalized object. Operations that do not
// deserialize return objectToPopulate unchanged.
func (s *DeserializeStage) Apply(ctx context.Context, objectToPopulate interface{}, resourceClass string, op resource.Operation, rctx Context) (interface{}, error) {
	if !op.CanDeserialize() {
		return objectToPopulate, nil
	}

	input := ordered.New()
	rctx.Input().Range(func(k string, v interface{}) bool {
		if k != "id" && k != "clientMutationId" {
			input.Set(k, v)
		}
		return true
	})

	sctx := &serializer.Context{
		ResourceClass: resourceClass,
		Operation:     op,
		Groups:        op.DenormalizationContext().Groups,
	}
	if !serializer.IsNil(objectToPopulate) {
		sctx.ObjectToPopulate = objectToPopulate
	}

	item, err := s.denormalizer.Denormalize(ctx, input, resourceClass, serializer.FormatGraphQL, sctx)
	if err != nil {
		return nil, err
	}
	if serializer.IsNil(item) {
		return nil, apierr.NewUnexpectedValue("Expected item to be an object, %s given.", apierr.Describe(item))
	}
	return item, nil
}
