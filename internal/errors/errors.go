// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a GitHub login, user or resume does not exist.
var ErrNotFound = errors.New("resource not found")

// ErrMissingField is returned when a required body or query field is absent.
type ErrMissingField struct {
	Source string
	Field  string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("missing required %s field: %q", e.Source, e.Field)
}

// ErrRefreshTooFrequent is returned when a refresh is requested before the
// configured refresh interval has elapsed.
type ErrRefreshTooFrequent struct {
	Remaining time.Duration
}

func (e *ErrRefreshTooFrequent) Error() string {
	return fmt.Sprintf("refresh requested too soon, retry in %s", e.Remaining.Round(time.Second))
}

// ErrInvalidConfig is returned when a configuration value fails validation.
type ErrInvalidConfig struct {
	Key    string
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}
