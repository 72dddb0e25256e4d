package validation

import (
	"context"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/security"
)

// Constraint is a rule over the whole object, written as an expression over
// object (and user, roles, previous_object)
type Constraint struct {
	Name       string
	Expression string
	// Message is reported when the expression is false; it defaults to the
	// constraint name
	Message string
	// PropertyPath attaches the violation to a property, "" for the object
	PropertyPath string
	Groups       []string
}

// Constrained is implemented by resources declaring object constraints
type Constrained interface {
	APIConstraints() []Constraint
}

// ExpressionEvaluator evaluates boolean expressions over an object.
// security.ResourceAccessChecker satisfies it.
type ExpressionEvaluator interface {
	IsGranted(ctx context.Context, resourceClass, expression string, vars security.Vars) (bool, error)
}

// ConstraintValidator evaluates the constraints of Constrained objects
type ConstraintValidator struct {
	evaluator ExpressionEvaluator
}

// NewConstraintValidator creates a constraint validator. Without an
// evaluator constraints are skipped.
func NewConstraintValidator(evaluator ExpressionEvaluator) *ConstraintValidator {
	return &ConstraintValidator{evaluator: evaluator}
}

// Validate adds a violation for every constraint of object in groups that
// does not hold
func (cv *ConstraintValidator) Validate(ctx context.Context, resourceClass string, object interface{}, groups []string, violations *apierr.ValidationError) error {
	constrained, ok := object.(Constrained)
	if !ok || cv.evaluator == nil {
		return nil
	}

	for _, c := range constrained.APIConstraints() {
		if !appliesTo(c.Groups, groups) {
			continue
		}
		valid, err := cv.evaluator.IsGranted(ctx, resourceClass, c.Expression, security.Vars{Object: object})
		if err != nil {
			return err
		}
		if valid {
			continue
		}
		msg := c.Message
		if msg == "" {
			msg = c.Name
		}
		violations.Add(c.PropertyPath, msg)
	}
	return nil
}

// appliesTo reports whether a rule declared for ruleGroups runs when
// validating groups. Rules without groups always run.
func appliesTo(ruleGroups, groups []string) bool {
	if len(ruleGroups) == 0 {
		return true
	}
	for _, g := range ruleGroups {
		for _, want := range groups {
			if g == want {
				return true
			}
		}
	}
	return false
}
