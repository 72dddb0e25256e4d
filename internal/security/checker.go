package security

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/google/cel-go/cel"
	"go.uber.org/zap"
)

// Vars are the values an expression can reach besides the user
type Vars struct {
	Object         interface{}
	PreviousObject interface{}
	Request        map[string]interface{}
}

// ResourceAccessChecker evaluates a security expression
type ResourceAccessChecker interface {
	IsGranted(ctx context.Context, resourceClass, expression string, vars Vars) (bool, error)
}

// CELChecker evaluates expressions written in CEL:
//
//	"ROLE_ADMIN" in roles || object.owner == user.id
//
// Variables: user, roles, object, previous_object, request. Objects are
// exposed under their JSON names. Compiled programs are kept per
// expression.
type CELChecker struct {
	env       *cel.Env
	hierarchy *RoleHierarchy
	logger    *zap.Logger
	programs  sync.Map
}

// NewCELChecker creates a checker. hierarchy may be nil.
func NewCELChecker(hierarchy *RoleHierarchy, logger *zap.Logger) (*CELChecker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	env, err := cel.NewEnv(
		cel.Variable("user", cel.DynType),
		cel.Variable("roles", cel.ListType(cel.StringType)),
		cel.Variable("object", cel.DynType),
		cel.Variable("previous_object", cel.DynType),
		cel.Variable("request", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}
	return &CELChecker{env: env, hierarchy: hierarchy, logger: logger}, nil
}

// IsGranted reports whether expression holds. An empty expression is
// always granted.
func (c *CELChecker) IsGranted(ctx context.Context, resourceClass, expression string, vars Vars) (bool, error) {
	if expression == "" {
		return true, nil
	}

	prg, err := c.program(expression)
	if err != nil {
		return false, err
	}

	user := UserFromContext(ctx)
	var roles []string
	if user != nil {
		roles = c.hierarchy.Reachable(user.Roles)
	}
	request := vars.Request
	if request == nil {
		request = map[string]interface{}{}
	}

	object, err := exposed(vars.Object)
	if err != nil {
		return false, err
	}
	previous, err := exposed(vars.PreviousObject)
	if err != nil {
		return false, err
	}

	var userValue interface{}
	if m := user.Map(); m != nil {
		userValue = m
	}
	out, _, err := prg.ContextEval(ctx, map[string]interface{}{
		"user":            userValue,
		"roles":           roles,
		"object":          object,
		"previous_object": previous,
		"request":         request,
	})
	if err != nil {
		c.logger.Debug("security expression failed",
			zap.String("resource", resourceClass),
			zap.String("expression", expression),
			zap.Error(err),
		)
		return false, nil
	}

	granted, ok := out.Value().(bool)
	if !ok {
		return false, apierr.Configuration("The security expression %q of %q does not evaluate to a boolean.", expression, resourceClass)
	}
	return granted, nil
}

func (c *CELChecker) program(expression string) (cel.Program, error) {
	if prg, ok := c.programs.Load(expression); ok {
		return prg.(cel.Program), nil
	}

	ast, iss := c.env.Compile(expression)
	if iss.Err() != nil {
		return nil, apierr.Configuration("Invalid security expression %q: %v", expression, iss.Err())
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, apierr.Configuration("Invalid security expression %q: %v", expression, err)
	}
	actual, _ := c.programs.LoadOrStore(expression, prg)
	return actual.(cel.Program), nil
}

// exposed converts a resource into plain maps keyed by JSON name
func exposed(object interface{}) (interface{}, error) {
	if object == nil {
		return nil, nil
	}
	if v := reflect.ValueOf(object); v.Kind() == reflect.Ptr && v.IsNil() {
		return nil, nil
	}
	data, err := json.Marshal(object)
	if err != nil {
		return nil, fmt.Errorf("failed to expose %T to the security expression: %w", object, err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return integers(out), nil
}

// integers turns integral JSON numbers back into int64 so that
// comparisons with integer literals hold
func integers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = integers(e)
		}
	case []interface{}:
		for i, e := range t {
			t[i] = integers(e)
		}
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
	}
	return v
}
