// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinels across client layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the backend rejected the credentials or the token (expired or invalid).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRefreshFailed indicates the refresh token could not be exchanged for a new access token.
	ErrRefreshFailed = errors.New("refresh failed")

	// ErrForbidden indicates the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates a rejected form or payload.
	ErrValidation = errors.New("validation")

	// ErrNetwork indicates the backend could not be reached.
	ErrNetwork = errors.New("network")

	// ErrServer indicates a 5xx or an unexpected backend answer.
	ErrServer = errors.New("server")

	// ErrNoSession indicates there is no stored session (no token or no user record).
	ErrNoSession = errors.New("no session")

	// ErrCorruptSession indicates the stored user record cannot be parsed.
	ErrCorruptSession = errors.New("corrupt session")

	// ErrDeclined indicates the user refused a confirmation prompt.
	ErrDeclined = errors.New("declined")
)

// APIError is a backend failure carrying the message meant for inline display.
type APIError struct {
	Status int
	Detail string
	Fields map[string][]string
	Kind   error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
}

// Unwrap exposes the sentinel kind for errors.Is.
func (e *APIError) Unwrap() error { return e.Kind }

// KindForStatus maps an HTTP status to a sentinel (nil for 2xx/3xx).
func KindForStatus(status int) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		return ErrValidation
	default:
		return ErrServer
	}
}

// Message returns the text shown to the user for err: the backend detail when present.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *APIError
	if errors.As(err, &ae) && ae.Detail != "" {
		return ae.Detail
	}
	return err.Error()
}
