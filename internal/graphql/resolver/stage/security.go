package stage

import (
	"context"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/security"
)

const defaultAccessDenied = "Access Denied."

// SecurityStage checks the security expression of the operation against
// the object read
type SecurityStage struct {
	checker security.ResourceAccessChecker
}

// NewSecurityStage creates the stage. A nil checker only serves operations
// without a security expression.
func NewSecurityStage(checker security.ResourceAccessChecker) *SecurityStage {
	return &SecurityStage{checker: checker}
}

// Apply fails with an access denied error when the expression does not hold
func (s *SecurityStage) Apply(ctx context.Context, resourceClass string, op resource.Operation, vars security.Vars) error {
	return check(ctx, s.checker, resourceClass, op.Security(), op.SecurityMessage(), vars)
}

// SecurityPostDenormalizeStage checks the post denormalize expression of
// the operation against the object built from the input, with the object
// read before as previous_object
type SecurityPostDenormalizeStage struct {
	checker security.ResourceAccessChecker
}

// NewSecurityPostDenormalizeStage creates the stage
func NewSecurityPostDenormalizeStage(checker security.ResourceAccessChecker) *SecurityPostDenormalizeStage {
	return &SecurityPostDenormalizeStage{checker: checker}
}

// Apply fails with an access denied error when the expression does not hold
func (s *SecurityPostDenormalizeStage) Apply(ctx context.Context, resourceClass string, op resource.Operation, vars security.Vars) error {
	return check(ctx, s.checker, resourceClass, op.SecurityPostDenormalize(), op.SecurityPostDenormalizeMessage(), vars)
}

func check(ctx context.Context, checker security.ResourceAccessChecker, resourceClass, expression, message string, vars security.Vars) error {
	if expression == "" {
		return nil
	}
	if checker == nil {
		return apierr.Configuration("Cannot check security expression %q of %q without an access checker.", expression, resourceClass)
	}

	granted, err := checker.IsGranted(ctx, resourceClass, expression, vars)
	if err != nil {
		return err
	}
	if granted {
		return nil
	}
	if message == "" {
		message = defaultAccessDenied
	}
	return apierr.AccessDenied(message)
}
