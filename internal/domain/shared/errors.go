// Package shared contains the error taxonomy used across all domain packages.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds that can be used for error checking with errors.Is().
var (
	// ErrNotFound is returned when no entity matches a lookup.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput covers malformed caller input and unparsable source values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal covers storage failures and integrity violations.
	ErrInternal = errors.New("internal error")

	// ErrInvalidConfig is returned when a component is constructed with bad settings.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "transcript"
	Op      string // Operation that failed, e.g., "Resolve", "Normalize"
	Kind    error  // Base error kind for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Domain == t.Domain && e.Op == t.Op && e.Message == t.Message
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of e carrying err as the underlying cause. The copy
// still matches e under errors.Is.
func (e *DomainError) Wrap(err error) *DomainError {
	return WrapError(e.Domain, e.Op, e.Kind, e.Message, err)
}

// Student domain errors
var (
	ErrStudentNotFound       = NewDomainError("student", "Resolve", ErrNotFound, "student not found")
	ErrEmptyIdentifier       = NewDomainError("student", "Resolve", ErrInvalidInput, "identifier is empty")
	ErrNonNumericIdentifier  = NewDomainError("student", "Resolve", ErrInvalidInput, "identifier must be numeric")
	ErrAmbiguousIdentifier   = NewDomainError("student", "Resolve", ErrInternal, "identifier matches more than one student")
	ErrStoreUnavailable      = NewDomainError("student", "Resolve", ErrInternal, "student store unavailable")
	ErrUnknownResolutionMode = NewDomainError("student", "NewStrategy", ErrInvalidConfig, "unknown resolution mode")
)

// Transcript domain errors
var (
	ErrMalformedGrade       = NewDomainError("transcript", "Normalize", ErrInvalidInput, "malformed grade")
	ErrGradesUnavailable    = NewDomainError("transcript", "Load", ErrInternal, "grade store unavailable")
	ErrInvalidGradingPolicy = NewDomainError("transcript", "NewGradingPolicy", ErrInvalidConfig, "invalid grading policy")
)

// Kind names a failure class exposed to callers.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// KindOf classifies err. Anything that is not recognisably invalid input or
// not-found is internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return KindInvalidInput
	case IsNotFound(err):
		return KindNotFound
	default:
		return KindInternal
	}
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is an invalid input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInternal checks if the error is an internal error.
func IsInternal(err error) bool {
	return KindOf(err) == KindInternal
}
