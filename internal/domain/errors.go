package domain

import (
	"errors"
	"fmt"
)

// ErrAccessDenied is returned when a connection attempts to subscribe to a
// website its account is not entitled to.
var ErrAccessDenied = errors.New("access denied")

// ErrAuthFailed is returned when an identity cannot be resolved to an active
// account during the realtime handshake.
var ErrAuthFailed = errors.New("authentication failed")

// ValidationError rejects an event before any write is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: field %q: %s", e.Field, e.Reason)
}

// NewMissingField reports a required field that is absent or unparseable.
func NewMissingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "missing required field"}
}

// WriteError reports a failed projection fan-out. Projections that were
// written before the failure are not rolled back; Failed names the
// projections whose writes did not succeed.
type WriteError struct {
	Failed []string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("projection write failed (%v): %v", e.Failed, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
