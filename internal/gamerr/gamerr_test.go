package gamerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotAuthenticated, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusBadRequest},
		{ErrValidation, http.StatusBadRequest},
		{ErrInsufficientResources, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "err: %v", tc.err)
	}
}

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrNotAuthenticated, "NOT_AUTHENTICATED"},
		{ErrForbidden, "FORBIDDEN"},
		{ErrNotFound, "NOT_FOUND"},
		{ErrAlreadyExists, "ALREADY_EXISTS"},
		{ErrValidation, "VALIDATION_FAILED"},
		{ErrInsufficientResources, "INSUFFICIENT_RESOURCES"},
		{errors.New("boom"), "INTERNAL"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Code(tc.err), "err: %v", tc.err)
	}
}

func TestWrappedErrorsKeepTheirMapping(t *testing.T) {
	wrapped := fmt.Errorf("character %q: %w", "Piper", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
	assert.Equal(t, "NOT_FOUND", Code(wrapped))

	doubly := fmt.Errorf("handling request: %w", wrapped)
	assert.Equal(t, "NOT_FOUND", Code(doubly))
}
