package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *ApplicationError
		want int
	}{
		{"validation", Validation("missing"), http.StatusBadRequest},
		{"not found", NotFound("no rows"), http.StatusNotFound},
		{"upstream", Upstream("db", errors.New("boom")), http.StatusInternalServerError},
		{"unknown type", &ApplicationError{Type: "other"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestDetailIsRawCause(t *testing.T) {
	err := Upstream("Error updating loan tenure", errors.New("constraint violation"))

	assert.Equal(t, "constraint violation", err.Detail())
	assert.Equal(t, "Error updating loan tenure: constraint violation", err.Error())
	assert.Empty(t, NotFound("x").Detail())
}

func TestAsApplicationError(t *testing.T) {
	nf := NotFound("no user")
	wrapped := fmt.Errorf("step: %w", nf)

	assert.Same(t, nf, AsApplicationError(wrapped, "ignored"))

	plain := AsApplicationError(errors.New("io"), "fetch failed")
	assert.Equal(t, ErrorTypeUpstream, plain.Type)
	assert.Equal(t, "io", plain.Detail())
	assert.Equal(t, ErrorTypeUpstream, GetErrorType(plain))
	assert.Equal(t, ErrorType("unknown"), GetErrorType(errors.New("x")))
}

func TestFromPanic(t *testing.T) {
	assert.Equal(t, "boom", FromPanic("boom").Detail())
	assert.Equal(t, "bad", FromPanic(errors.New("bad")).Detail())
}
