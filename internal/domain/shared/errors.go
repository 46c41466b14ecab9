// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrExpired         = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "course", "attendance", "profile"
	Op      string // Operation that failed, e.g., "Create", "Record"
	Kind    error  // Base error type for errors.Is() checking
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

// Course domain errors
var (
	ErrCourseNotFound       = NewDomainError("course", "Find", ErrNotFound, "course not found")
	ErrCourseNameRequired   = NewDomainError("course", "Validate", ErrEmptyValue, "course name is required")
	ErrInvalidTotalSessions = NewDomainError("course", "Validate", ErrValueOutOfRange, "total sessions must be at least 1")
	ErrTotalBelowRecorded   = NewDomainError("course", "Update", ErrValueOutOfRange, "total sessions cannot be below recorded entries")
	ErrInvalidWeekday       = NewDomainError("course", "Validate", ErrInvalidInput, "invalid weekday")
	ErrInvalidClockTime     = NewDomainError("course", "Validate", ErrInvalidFormat, "class time must be in HH:MM format")
)

// Attendance domain errors
var (
	ErrEntryNotFound     = NewDomainError("attendance", "Find", ErrNotFound, "attendance entry not found")
	ErrInvalidStatus     = NewDomainError("attendance", "Validate", ErrInvalidInput, "status must be present or absent")
	ErrNoSessionsLeft    = NewDomainError("attendance", "Record", ErrInvalidState, "no sessions left to record")
	ErrEmptyLog          = NewDomainError("attendance", "Undo", ErrNotFound, "attendance log is empty")
	ErrUndoStatusMismatch = NewDomainError("attendance", "Undo", ErrInvalidState, "latest entry does not match the status being undone")
)

// Profile domain errors
var (
	ErrProfileNotFound      = NewDomainError("profile", "Find", ErrNotFound, "profile not found")
	ErrSubscriptionNotFound = NewDomainError("profile", "FindSubscription", ErrNotFound, "push subscription not found")
	ErrInvalidSubscription  = NewDomainError("profile", "Validate", ErrInvalidInput, "push subscription is missing endpoint or keys")
	ErrInvalidExpectedGrade = NewDomainError("profile", "Validate", ErrInvalidInput, "expected grade is not on the grade scale")
	ErrInvalidUserID        = NewDomainError("profile", "Validate", ErrInvalidID, "invalid user ID")
)

// Notification domain errors
var (
	ErrNotificationFailed = NewDomainError("notification", "Send", ErrExternalService, "failed to send push notification")
	ErrSubscriptionGone   = NewDomainError("notification", "Send", ErrExpired, "push subscription is no longer valid")
	ErrPushUnavailable    = NewDomainError("notification", "Send", ErrServiceUnavailable, "push service is unavailable")
)

// Storage errors
var (
	ErrStoreUnavailable = NewDomainError("store", "Request", ErrServiceUnavailable, "document store is unavailable")
	ErrStoreTimeout     = NewDomainError("store", "Request", ErrTimeout, "document store request timeout")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsConflict checks if the error is a state conflict (the action is valid
// in general but not against the current data).
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrStateTransition)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
