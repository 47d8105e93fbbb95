// Package services implements the maintenance request lifecycle: request
// numbering, status transitions, the work log journal and the facade the HTTP
// layer calls. This file centralizes the service-level error values.
//
// NotFound, InvalidStatus and Validation are expected, caller-actionable
// outcomes and are returned as-is. Any other persistence failure is wrapped in
// a *StoreError so callers can match ErrStore without ever seeing driver text.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestNotFound indicates the referenced maintenance request does not exist.
	ErrRequestNotFound = errors.New("maintenance request not found")

	// ErrInvalidStatus is returned when a status is outside the fixed set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrValidation marks malformed or missing input. Match it with errors.Is;
	// the concrete value is usually a *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrGeneration is returned when a request number cannot be produced at all.
	ErrGeneration = errors.New("request number generation failed")

	// ErrStore marks an underlying persistence failure.
	ErrStore = errors.New("store error")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

// StoreError wraps a persistence failure with the operation that hit it.
// Error() never includes the cause; use Unwrap for logging.
type StoreError struct {
	Op        string
	RequestID uint
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, ErrStore.Error())
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStore) true.
func (e *StoreError) Is(target error) bool { return target == ErrStore }
