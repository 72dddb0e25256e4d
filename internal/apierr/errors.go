// Package apierr defines the error taxonomy shared by the metadata, data and
// serialization layers: not-found, invalid-argument, unexpected-value,
// configuration and access errors. Boundaries (JSON:API, GraphQL) translate
// these into status codes with HTTPStatus.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors. Wrap them with fmt.Errorf("%w: ...") to add detail.
var (
	// ErrNotFound is returned when an item does not exist
	ErrNotFound = errors.New("not found")

	// ErrResourceClassNotFound is returned for classes that are not registered
	ErrResourceClassNotFound = errors.New("resource class not found")

	// ErrResourceClassNotSupported lets a chained provider try the next one
	ErrResourceClassNotSupported = errors.New("resource class not supported")

	// ErrOperationNotFound is returned when a resource has no such operation
	ErrOperationNotFound = errors.New("operation not found")

	// ErrPropertyNotFound is returned when a class has no such property
	ErrPropertyNotFound = errors.New("property not found")

	// ErrInvalidArgument is returned for bad pagination bounds, malformed filters, etc.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidIdentifier is returned when an identifier cannot be converted
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidIRI is returned when an IRI cannot be resolved to a resource
	ErrInvalidIRI = errors.New("invalid IRI")

	// ErrUnexpectedValue is returned when denormalization meets a value it cannot use
	ErrUnexpectedValue = errors.New("unexpected value")

	// ErrConfiguration marks setup mistakes (wrong manager type, missing schema)
	ErrConfiguration = errors.New("configuration error")

	// ErrAccessDenied is returned when a security expression rejects access
	ErrAccessDenied = errors.New("access denied")

	// ErrValidation is returned when a written object breaks its constraints
	ErrValidation = errors.New("validation failed")
)

// UnexpectedValueError describes a type mismatch on one attribute during denormalization.
type UnexpectedValueError struct {
	Attribute string
	Expected  string
	Given     string
	Message   string
}

// Error implements the error interface
func (e *UnexpectedValueError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("The type of the %q attribute must be %q, %q given.", e.Attribute, e.Expected, e.Given)
}

// Unwrap lets errors.Is match ErrUnexpectedValue
func (e *UnexpectedValueError) Unwrap() error {
	return ErrUnexpectedValue
}

// NewTypeMismatch builds an UnexpectedValueError for attribute/expected/given.
func NewTypeMismatch(attribute, expected string, given interface{}) *UnexpectedValueError {
	return &UnexpectedValueError{
		Attribute: attribute,
		Expected:  expected,
		Given:     Describe(given),
	}
}

// NewUnexpectedValue builds an UnexpectedValueError with a free-form message.
func NewUnexpectedValue(format string, args ...interface{}) *UnexpectedValueError {
	return &UnexpectedValueError{Message: fmt.Sprintf(format, args...)}
}

// Describe names the type of a decoded value the way error messages do
func Describe(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "string"
	case bool:
		return "bool"
	case float32, float64:
		return "float"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "array"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// Violation is one broken constraint
type Violation struct {
	PropertyPath string
	Message      string
}

// ValidationError lists the constraints an object breaks
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: %s", e.Violations[0].PropertyPath, e.Violations[0].Message)
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.PropertyPath + ": " + v.Message
	}
	return strings.Join(msgs, "\n")
}

// Unwrap lets errors.Is match ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add records a violation
func (e *ValidationError) Add(propertyPath, message string) {
	e.Violations = append(e.Violations, Violation{PropertyPath: propertyPath, Message: message})
}

// InvalidArgument wraps ErrInvalidArgument with a human-readable message.
func InvalidArgument(format string, args ...interface{}) error {
	return &messageError{sentinel: ErrInvalidArgument, msg: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound with a human-readable message.
func NotFound(format string, args ...interface{}) error {
	return &messageError{sentinel: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Configuration wraps ErrConfiguration with a human-readable message.
func Configuration(format string, args ...interface{}) error {
	return &messageError{sentinel: ErrConfiguration, msg: fmt.Sprintf(format, args...)}
}

// AccessDenied wraps ErrAccessDenied; an empty message defaults to "Access Denied."
func AccessDenied(msg string) error {
	if msg == "" {
		msg = "Access Denied."
	}
	return &messageError{sentinel: ErrAccessDenied, msg: msg}
}

// messageError carries a user-facing message while matching a sentinel.
type messageError struct {
	sentinel error
	msg      string
}

func (e *messageError) Error() string { return e.msg }

func (e *messageError) Unwrap() error { return e.sentinel }

// IsNotFound returns true for item, resource class, operation and property not-found errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrResourceClassNotFound) ||
		errors.Is(err, ErrOperationNotFound)
}

// IsInvalidArgument returns true if the error is an invalid-argument error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrInvalidIdentifier)
}

// IsUnexpectedValue returns true if the error is a denormalization failure
func IsUnexpectedValue(err error) bool {
	return errors.Is(err, ErrUnexpectedValue) || errors.Is(err, ErrInvalidIRI)
}

// IsValidation returns true if the error lists constraint violations
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConfiguration returns true for fatal setup mistakes
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNotSupported returns true when a provider declined the resource class
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrResourceClassNotSupported)
}

// IsAccessDenied returns true if a security expression rejected access
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// HTTPStatus maps an error to the status code used at the HTTP/GraphQL boundary.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAccessDenied(err):
		return http.StatusForbidden
	case IsValidation(err):
		return http.StatusUnprocessableEntity
	case IsInvalidArgument(err), IsUnexpectedValue(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
