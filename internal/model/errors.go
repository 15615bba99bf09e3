package model

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrNetwork marks a rejected fetch or a non-success HTTP status.
	ErrNetwork = errors.New("network failure")
	// ErrValidation marks a request rejected before it was sent.
	ErrValidation = errors.New("validation failure")
	// ErrAccessDenied marks a failed access gate check.
	ErrAccessDenied = errors.New("access denied")
)

// NetworkError describes a failed request. Status is zero when no
// response was received.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 && e.Err != nil {
		return fmt.Sprintf("HTTP %d for %s: %v", e.Status, e.URL, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("HTTP %d for %s", e.Status, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return "fetching " + e.URL + ": network failure"
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ValidationError names the first field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
