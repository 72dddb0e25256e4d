package relationships

import "github.com/Foxprodev/core/internal/apierr"

// Loader errors match both their own value and the apierr kind the
// caller reports them as.
var (
	// ErrMaxDepthExceeded is returned when includes nest deeper than the load context allows
	ErrMaxDepthExceeded error = &loadError{msg: "maximum relationship depth exceeded", kind: apierr.ErrInvalidArgument}

	// ErrUnknownRelationship is returned for an include the schema does not declare
	ErrUnknownRelationship error = &loadError{msg: "unknown relationship", kind: apierr.ErrInvalidArgument}

	// ErrInvalidRelationType is returned for a schema relationship of no known type
	ErrInvalidRelationType error = &loadError{msg: "invalid relationship type", kind: apierr.ErrConfiguration}
)

type loadError struct {
	msg  string
	kind error
}

func (e *loadError) Error() string { return e.msg }

func (e *loadError) Unwrap() error { return e.kind }
