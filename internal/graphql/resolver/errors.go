package resolver

import (
	"errors"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Error categories reported in the error extensions
const (
	CategoryUser     = "user"
	CategoryInternal = "internal"
)

// Error is a resolver failure as clients see it. The executor reads its
// extensions (status, category, violations) through Extensions.
type Error struct {
	gql *gqlerror.Error
}

// NewError converts err into a resolver error. Internal errors keep their
// message only in debug mode.
func NewError(err error, debug bool) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}

	status := apierr.HTTPStatus(err)
	gql := gqlerror.Wrap(err)
	gql.Message = serializer.ErrorDetail(err, status, debug)
	gql.Extensions = map[string]interface{}{
		"status":   status,
		"category": CategoryUser,
	}
	if status >= 500 {
		gql.Extensions["category"] = CategoryInternal
	}

	var unexpected *apierr.UnexpectedValueError
	var validation *apierr.ValidationError
	switch {
	case errors.As(err, &validation):
		violations := make([]interface{}, len(validation.Violations))
		for i, v := range validation.Violations {
			violations[i] = map[string]interface{}{"propertyPath": v.PropertyPath, "message": v.Message}
		}
		gql.Extensions["violations"] = violations
	case errors.As(err, &unexpected) && unexpected.Attribute != "":
		gql.Extensions["violations"] = []interface{}{
			map[string]interface{}{"propertyPath": unexpected.Attribute, "message": unexpected.Error()},
		}
	}
	return &Error{gql: gql}
}

func (e *Error) Error() string { return e.gql.Message }

// Extensions returns the status and category of the error
func (e *Error) Extensions() map[string]interface{} { return e.gql.Extensions }

// Unwrap returns the GraphQL error, which unwraps to the domain error
func (e *Error) Unwrap() error { return e.gql }

// GraphQL returns the underlying GraphQL error
func (e *Error) GraphQL() *gqlerror.Error { return e.gql }

// Status returns the HTTP status equivalent of the error
func (e *Error) Status() int {
	status, _ := e.gql.Extensions["status"].(int)
	return status
}
