package stage

import (
	"context"

	"github.com/Foxprodev/core/internal/metadata/resource"
)

// ValidateStage runs the validator on the object of a mutation
type ValidateStage struct {
	validator Validator
}

// NewValidateStage creates the stage. A nil validator accepts everything.
func NewValidateStage(validator Validator) *ValidateStage {
	return &ValidateStage{validator: validator}
}

// Apply validates object with the denormalization groups of op
func (s *ValidateStage) Apply(ctx context.Context, object interface{}, op resource.Operation) error {
	if !op.CanValidate() || s.validator == nil {
		return nil
	}
	return s.validator.Validate(ctx, object, op.DenormalizationContext().Groups)
}
