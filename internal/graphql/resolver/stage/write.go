package stage

import (
	"context"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/serializer"
)

// WriteStage persists the object of a mutation, or removes it for delete
// mutations
type WriteStage struct {
	persister Persister
}

// NewWriteStage creates the stage
func NewWriteStage(persister Persister) *WriteStage {
	return &WriteStage{persister: persister}
}

// Apply returns the persisted object, or nil once removed
func (s *WriteStage) Apply(ctx context.Context, object interface{}, op resource.Operation) (interface{}, error) {
	if serializer.IsNil(object) || !op.CanWrite() {
		return object, nil
	}
	if s.persister == nil {
		return nil, apierr.Configuration("No persister configured to write %q.", op.Name())
	}

	if op.Name() == resource.GraphQLDelete {
		if err := s.persister.Remove(ctx, object); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s.persister.Persist(ctx, object)
}
