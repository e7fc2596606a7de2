package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("todo not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("invalid request")
)

// StatusError is a non-2xx answer from the data service.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Message)
}

// Unwrap maps well-known codes onto the package sentinels so callers can
// use errors.Is.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
