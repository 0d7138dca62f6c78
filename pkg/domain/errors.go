package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the fixed taxonomy every provider failure is normalized into
// before it leaves the adapter layer.
type ErrorKind string

const (
	KindRateLimit     ErrorKind = "RATE_LIMIT"
	KindAuth          ErrorKind = "AUTH_ERROR"
	KindNetwork       ErrorKind = "NETWORK_ERROR"
	KindSafetyBlocked ErrorKind = "SAFETY_BLOCKED"
	KindUnknown       ErrorKind = "UNKNOWN"
	// KindMissingDependency marks a dependent turn whose input slot failed.
	// It never comes from the provider; only the orchestrator produces it.
	KindMissingDependency ErrorKind = "MISSING_DEPENDENCY"
)

// ClassifiedError is a provider failure normalized into the taxonomy, with a
// retryability flag and a message safe to show to end users.
type ClassifiedError struct {
	Kind        ErrorKind `json:"type"`
	Retryable   bool      `json:"retryable"`
	UserMessage string    `json:"userMessage"`
	Err         error     `json:"-"`
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// AsClassified returns err as a ClassifiedError, wrapping anything that
// escaped classification as a non-retryable UNKNOWN. Guarantees no raw error
// crosses the orchestrator boundary.
func AsClassified(err error) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return &ClassifiedError{
		Kind:        KindUnknown,
		Retryable:   false,
		UserMessage: "Generation failed. Please try again.",
		Err:         err,
	}
}

// ConfigError is a fatal startup problem: missing template directory or
// schema, missing credentials. The process must not accept requests with one
// of these pending.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return "config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ValidationError rejects a malformed template or request before it reaches
// prompt construction.
type ValidationError struct {
	Subject  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(e.Problems, ", "))
}

// NotFoundError reports a lookup miss in the template store.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no template found for %s: %s", e.Kind, e.Key)
}

// MissingDependencyError marks a sequential-flow slot that cannot run
// because the slot it depends on failed. The dependent call is never
// dispatched.
type MissingDependencyError struct {
	Slot  int
	Cause *ClassifiedError
}

func (e *MissingDependencyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dependency for slot %d failed: %v", e.Slot, e.Cause)
	}
	return fmt.Sprintf("dependency for slot %d failed", e.Slot)
}

func (e *MissingDependencyError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return nil
}

// NewMissingDependency wraps a missing turn-2 output as a classified,
// non-retryable failure so it travels the same path as provider failures.
func NewMissingDependency(slot int, cause *ClassifiedError) *ClassifiedError {
	return &ClassifiedError{
		Kind:        KindMissingDependency,
		Retryable:   false,
		UserMessage: "A required earlier step failed, so this image was skipped.",
		Err:         &MissingDependencyError{Slot: slot, Cause: cause},
	}
}
