package users

import (
	"errors"
	"fmt"
)

// ErrUserNotFound is returned by GetUser when no record has the requested id.
var ErrUserNotFound = errors.New("user not found")

// ValidationError represents a missing or empty required field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewMissingFieldError creates an error for a required field that is absent or empty
func NewMissingFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "field is required",
	}
}

// StorageError represents errors related to storage operations
type StorageError struct {
	Type      string
	Operation string
	Resource  string
	Message   string
	Cause     error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage error [%s] during %s on %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Resource, e.Message, e.Cause)
	}
	return fmt.Sprintf("storage error [%s] during %s on %s: %s",
		e.Type, e.Operation, e.Resource, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Storage error types
const (
	StorageErrorTypeConnectionFailed    = "connection_failed"
	StorageErrorTypeQueryFailed         = "query_failed"
	StorageErrorTypeConstraintViolation = "constraint_violation"
	StorageErrorTypeSchemaFailed        = "schema_failed"
	StorageErrorTypeDataCorruption      = "data_corruption"
)

// NewStorageConnectionError creates an error for storage connection failures
func NewStorageConnectionError(operation, resource string, cause error) *StorageError {
	return &StorageError{
		Type:      StorageErrorTypeConnectionFailed,
		Operation: operation,
		Resource:  resource,
		Message:   "failed to connect to storage",
		Cause:     cause,
	}
}

// NewStorageQueryError creates an error for storage query failures
func NewStorageQueryError(operation, resource string, cause error) *StorageError {
	return &StorageError{
		Type:      StorageErrorTypeQueryFailed,
		Operation: operation,
		Resource:  resource,
		Message:   "storage query failed",
		Cause:     cause,
	}
}

// NewStorageConstraintError creates an error for constraint violations
func NewStorageConstraintError(operation, resource string, cause error) *StorageError {
	return &StorageError{
		Type:      StorageErrorTypeConstraintViolation,
		Operation: operation,
		Resource:  resource,
		Message:   "storage constraint violation",
		Cause:     cause,
	}
}

// NewStorageSchemaError creates an error for table bootstrap failures
func NewStorageSchemaError(resource string, cause error) *StorageError {
	return &StorageError{
		Type:      StorageErrorTypeSchemaFailed,
		Operation: "ensure_schema",
		Resource:  resource,
		Message:   "failed to create table",
		Cause:     cause,
	}
}

// NewStorageDataError creates an error for records that cannot be decoded
func NewStorageDataError(operation, resource string, cause error) *StorageError {
	return &StorageError{
		Type:      StorageErrorTypeDataCorruption,
		Operation: operation,
		Resource:  resource,
		Message:   "stored record could not be decoded",
		Cause:     cause,
	}
}

// IsValidationError reports whether err carries a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
