package jsonapi

import (
	"errors"
	"net/http"
	"strings"

	ddjsonapi "github.com/DataDog/jsonapi"
	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// ErrorNormalizer writes errors as a JSON:API errors document
type ErrorNormalizer struct {
	Debug bool
}

func (e ErrorNormalizer) NormalizeError(err error) interface{} {
	status := apierr.HTTPStatus(err)
	je := &ddjsonapi.Error{
		Status: &status,
		Code:   errorCode(err, status),
		Title:  http.StatusText(status),
		Detail: serializer.ErrorDetail(err, status, e.Debug),
	}

	var uv *apierr.UnexpectedValueError
	if errors.As(err, &uv) && uv.Attribute != "" {
		je.Source = &ddjsonapi.ErrorSource{Pointer: "/data/attributes/" + escapeJSONPointer(uv.Attribute)}
	}
	return ordered.FromPairs("errors", []*ddjsonapi.Error{je})
}

func errorCode(err error, status int) string {
	switch {
	case errors.Is(err, apierr.ErrInvalidIRI):
		return "invalid_iri"
	case apierr.IsUnexpectedValue(err):
		return "unexpected_value"
	case apierr.IsAccessDenied(err):
		return "access_denied"
	}
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

// escapeJSONPointer escapes special characters per RFC 6901
func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
