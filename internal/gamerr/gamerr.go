// Package gamerr defines the shared error taxonomy for the game engine.
// Transports map these sentinels to HTTP statuses or WebSocket error
// payloads; engines wrap them with resource detail via fmt.Errorf and %w.
package gamerr

import (
	"errors"
	"net/http"
)

// ErrNotAuthenticated indicates a missing or invalid session. The caller
// must re-authenticate.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrForbidden indicates the caller is authenticated but is neither the
// owner of the target record nor a DM. No state change occurs.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound indicates a character, shop item, or recipe lookup failed.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists indicates a create collided with an existing record,
// e.g. a player who already owns a character.
var ErrAlreadyExists = errors.New("already exists")

// ErrValidation indicates a malformed payload or out-of-range field.
// Patch handlers may instead silently drop the malformed subset; this
// sentinel is for rejections that refuse the whole operation.
var ErrValidation = errors.New("validation failed")

// ErrInsufficientResources indicates materials, caps, or stock too low.
// No partial consumption occurs on this rejection.
var ErrInsufficientResources = errors.New("insufficient resources")

// HTTPStatus maps a taxonomy error to its HTTP status code.
//
// Postcondition: Returns 500 for errors outside the taxonomy.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientResources):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the short machine-readable code for a taxonomy error,
// used in WebSocket error payloads.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "NOT_AUTHENTICATED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrInsufficientResources):
		return "INSUFFICIENT_RESOURCES"
	default:
		return "INTERNAL"
	}
}
