package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFound("Item %q not found.", "/dummies/1"), http.StatusNotFound},
		{"class not found", fmt.Errorf("%w: Foo", ErrResourceClassNotFound), http.StatusNotFound},
		{"operation not found", ErrOperationNotFound, http.StatusNotFound},
		{"invalid argument", InvalidArgument("Limit should not be less than 0"), http.StatusBadRequest},
		{"invalid identifier", fmt.Errorf("%w: id", ErrInvalidIdentifier), http.StatusBadRequest},
		{"type mismatch", NewTypeMismatch("name", "string", 12), http.StatusBadRequest},
		{"access denied", AccessDenied(""), http.StatusForbidden},
		{"configuration", Configuration("no schema for %s", "Dummy"), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestUnexpectedValueError_Message(t *testing.T) {
	err := NewTypeMismatch("age", "int", "foo")
	assert.Equal(t, `The type of the "age" attribute must be "int", "string" given.`, err.Error())
	assert.True(t, IsUnexpectedValue(err))

	custom := NewUnexpectedValue("Nested documents for attribute %q are not allowed. Use IRIs instead.", "owner")
	assert.Equal(t, `Nested documents for attribute "owner" are not allowed. Use IRIs instead.`, custom.Error())
}

func TestMessageErrors_KeepMessage(t *testing.T) {
	err := InvalidArgument("Page should not be greater than 1 if limit is equal to 0")
	assert.Equal(t, "Page should not be greater than 1 if limit is equal to 0", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, "Access Denied.", AccessDenied("").Error())
}
