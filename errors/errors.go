/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors
var (
	// ErrMissingData is returned when a create or update request carries no data
	ErrMissingData = errors.New("missing data")

	// ErrMissingIdentifier is returned when neither an id nor an id-list can be found
	ErrMissingIdentifier = errors.New("missing ids")

	// ErrUnprocessableType is returned when a payload shape matches no supported case
	ErrUnprocessableType = errors.New("unprocessable type")

	// ErrNotFound is returned when a single-record target does not exist
	ErrNotFound = errors.New("entity not found")

	// ErrStoreFailure is returned when the underlying data store call fails
	ErrStoreFailure = errors.New("store failure")

	// ErrInvalidInput is returned when a request parameter cannot be parsed
	ErrInvalidInput = errors.New("invalid input")
)

// UnprocessableTypeError names the payload type that could not be handled
type UnprocessableTypeError struct {
	Type string
}

func (e *UnprocessableTypeError) Error() string {
	return fmt.Sprintf("Unprocessable type %s", e.Type)
}

func (e *UnprocessableTypeError) Is(target error) bool {
	return target == ErrUnprocessableType
}

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s doesn't exist", e.Type)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StoreError wraps a failure raised by a data store operation.
// It serializes to JSON so the raw cause can be sent back to the client.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

// MarshalJSON renders the underlying error, not the wrapper.
func (e *StoreError) MarshalJSON() ([]byte, error) {
	payload := struct {
		Name      string `json:"name"`
		Message   string `json:"message"`
		Operation string `json:"operation,omitempty"`
	}{
		Name:      "StoreError",
		Message:   "unknown error",
		Operation: e.Op,
	}
	if e.Err != nil {
		payload.Message = e.Err.Error()
	}
	return json.Marshal(payload)
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewUnprocessableTypeError creates a new UnprocessableTypeError
func NewUnprocessableTypeError(typeName string) error {
	return &UnprocessableTypeError{Type: typeName}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewStoreError creates a new StoreError for the named operation
func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsMissingData checks if an error is a missing data error
func IsMissingData(err error) bool {
	return errors.Is(err, ErrMissingData)
}

// IsMissingIdentifier checks if an error is a missing identifier error
func IsMissingIdentifier(err error) bool {
	return errors.Is(err, ErrMissingIdentifier)
}

// IsUnprocessableType checks if an error is an unprocessable type error
func IsUnprocessableType(err error) bool {
	return errors.Is(err, ErrUnprocessableType)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreFailure checks if an error is a store failure
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreFailure)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// StatusCode maps an error to the HTTP status it is reported with.
// Unknown errors are treated as store failures.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsMissingData(err), IsMissingIdentifier(err), IsValidationError(err):
		return http.StatusBadRequest
	case IsUnprocessableType(err), IsNotFound(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
