package serializer

import (
	"errors"
	"net/http"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// ErrorNormalizer writes errors in the format of a serializer
type ErrorNormalizer interface {
	NormalizeError(err error) interface{}
}

// ProblemNormalizer writes errors as application/problem+json documents
type ProblemNormalizer struct {
	// Debug exposes the message of internal errors
	Debug bool
}

func (p ProblemNormalizer) NormalizeError(err error) interface{} {
	status := apierr.HTTPStatus(err)
	out := ordered.New()
	out.Set("type", "https://tools.ietf.org/html/rfc2616#section-10")
	out.Set("title", "An error occurred")
	out.Set("status", status)
	out.Set("detail", ErrorDetail(err, status, p.Debug))

	var uv *apierr.UnexpectedValueError
	var ve *apierr.ValidationError
	switch {
	case errors.As(err, &ve):
		violations := make([]interface{}, len(ve.Violations))
		for i, v := range ve.Violations {
			violations[i] = ordered.FromPairs("propertyPath", v.PropertyPath, "message", v.Message)
		}
		out.Set("violations", violations)
	case errors.As(err, &uv) && uv.Attribute != "":
		out.Set("violations", []interface{}{
			ordered.FromPairs("propertyPath", uv.Attribute, "message", uv.Error()),
		})
	}
	return out
}

// ErrorDetail hides the message of internal errors unless debug is set
func ErrorDetail(err error, status int, debug bool) string {
	if status >= http.StatusInternalServerError && !debug {
		return http.StatusText(status)
	}
	return err.Error()
}
