package domain

import (
	"errors"
	"fmt"
)

// Error types for consistent error handling across the client.

// ErrorKind classifies a failed gateway call.
type ErrorKind string

const (
	// KindNetworkUnreachable means no response was received: connection
	// failure, timeout or an open circuit.
	KindNetworkUnreachable ErrorKind = "network_unreachable"
	// KindClientRejected covers 4xx responses.
	KindClientRejected ErrorKind = "client_rejected"
	// KindServerFault covers 5xx responses.
	KindServerFault ErrorKind = "server_fault"
	// KindUnclassified is everything else.
	KindUnclassified ErrorKind = "unclassified"
)

// APIError is the single error type returned by the API gateway.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Method  string
	Path    string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Title is the heading used when the error is shown to the user.
func (e *APIError) Title() string {
	if e.Kind == KindNetworkUnreachable {
		return "Network Error"
	}
	return "Error"
}

// KindOf returns the classification of err if it wraps an *APIError.
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return "", false
}

// IsStatus reports whether err wraps an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// ErrValidation indicates a validation error (bad input) caught before any call.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrRedirect is returned when the access guard refuses entry to a workflow.
type ErrRedirect struct {
	Target string
	Reason string
}

func (e *ErrRedirect) Error() string {
	return fmt.Sprintf("redirect to %s: %s", e.Target, e.Reason)
}

// ErrSession indicates the stored session lacks data a workflow needs.
type ErrSession struct {
	Message string
}

func (e *ErrSession) Error() string {
	return e.Message
}

// ErrConflict indicates a resource already exists (e.g. a second customer for a user).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrSubmitInFlight is returned when a transfer is submitted while a previous
// submission is still waiting for the server.
var ErrSubmitInFlight = errors.New("a transfer is already being processed")
