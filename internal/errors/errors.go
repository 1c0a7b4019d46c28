package errors

import (
	"errors"
	"fmt"
)

// Sentinel values usable with errors.Is; matching compares Type and Code only.
var (
	ErrNotFound      = &AppError{Type: ErrorTypeNotFound, Code: "NOT_FOUND"}
	ErrDuplicate     = &AppError{Type: ErrorTypeDuplicate, Code: "DUPLICATE"}
	ErrNoChange      = &AppError{Type: ErrorTypeNoChange, Code: "NO_CHANGE"}
	ErrNothingToUndo = &AppError{Type: ErrorTypeNothingToUndo, Code: "NOTHING_TO_UNDO"}
	ErrNothingToRedo = &AppError{Type: ErrorTypeNothingToRedo, Code: "NOTHING_TO_REDO"}
	ErrCorruption    = &AppError{Type: ErrorTypeCorruption, Code: "CORRUPTION"}
)

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    "VALIDATION_FAILED",
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string, identifier string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
		Code:    "NOT_FOUND",
		Context: map[string]interface{}{
			"resource":   resource,
			"identifier": identifier,
		},
	}
}

// NewDuplicateError creates an error for an assignment that already exists
func NewDuplicateError(resource string, identifier string) *AppError {
	return &AppError{
		Type:    ErrorTypeDuplicate,
		Message: fmt.Sprintf("%s already exists: %s", resource, identifier),
		Code:    "DUPLICATE",
		Context: map[string]interface{}{
			"resource":   resource,
			"identifier": identifier,
		},
	}
}

// NewNoChangeError creates an error for an update that supplied nothing to change
func NewNoChangeError(resource string, identifier string) *AppError {
	return &AppError{
		Type:    ErrorTypeNoChange,
		Message: fmt.Sprintf("no changes supplied for %s %s", resource, identifier),
		Code:    "NO_CHANGE",
		Context: map[string]interface{}{
			"resource":   resource,
			"identifier": identifier,
		},
	}
}

// NewNothingToUndoError is returned when the ledger holds no applied action
func NewNothingToUndoError() *AppError {
	return &AppError{
		Type:    ErrorTypeNothingToUndo,
		Message: "there is no action to undo",
		Code:    "NOTHING_TO_UNDO",
		Context: map[string]interface{}{"operation": "undo"},
	}
}

// NewNothingToRedoError is returned when the ledger holds no undone action
func NewNothingToRedoError() *AppError {
	return &AppError{
		Type:    ErrorTypeNothingToRedo,
		Message: "there is no action to redo",
		Code:    "NOTHING_TO_REDO",
		Context: map[string]interface{}{"operation": "redo"},
	}
}

// NewCorruptionError reports a ledger record whose payload cannot be decoded
func NewCorruptionError(actionID int64, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeCorruption,
		Message: fmt.Sprintf("action #%d payload is corrupted", actionID),
		Code:    "CORRUPTION",
		Cause:   cause,
		Context: map[string]interface{}{
			"action_id": actionID,
		},
	}
}

// NewInvariantError reports ledger state that disagrees with the stored tasks
func NewInvariantError(actionID int64, operation string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeInvariant,
		Message: fmt.Sprintf("%s of action #%d does not match the stored state", operation, actionID),
		Code:    "INVARIANT_VIOLATION",
		Cause:   cause,
		Context: map[string]interface{}{
			"action_id": actionID,
			"operation": operation,
		},
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(operation string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeDatabase,
		Message: fmt.Sprintf("database operation failed: %s", operation),
		Code:    "DATABASE_ERROR",
		Cause:   cause,
		Context: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(field string, value interface{}, reason string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidInput,
		Message: fmt.Sprintf("invalid input for %s: %s", field, reason),
		Code:    "INVALID_INPUT",
		Context: map[string]interface{}{
			"field":  field,
			"value":  value,
			"reason": reason,
		},
	}
}

// WrapError wraps an existing error with additional context
func WrapError(err error, errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Code:    errorType.String(),
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType checks if the error is of the specified type
func IsErrorType(err error, errorType ErrorType) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.IsType(errorType)
	}
	return false
}

// GetUserMessage returns a user-friendly error message
func GetUserMessage(err error) string {
	if appErr, ok := AsAppError(err); ok {
		switch appErr.Type {
		case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeInvalidInput,
			ErrorTypeDuplicate, ErrorTypeNoChange, ErrorTypeNothingToUndo, ErrorTypeNothingToRedo:
			return appErr.Message
		case ErrorTypeDatabase:
			return "A database error occurred. Please try again."
		case ErrorTypeCorruption, ErrorTypeInvariant:
			return appErr.Message + ". The action history needs to be cleared."
		default:
			return "An unexpected error occurred. Please try again."
		}
	}
	return err.Error()
}

// GetErrorCode returns the error code for the error
func GetErrorCode(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return "UNKNOWN_ERROR"
}

// ShouldLogError determines if an error should be logged based on its type
func ShouldLogError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		switch appErr.Type {
		case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeInvalidInput,
			ErrorTypeDuplicate, ErrorTypeNoChange, ErrorTypeNothingToUndo, ErrorTypeNothingToRedo:
			return false // These are user errors, not system errors
		default:
			return true
		}
	}
	return true // Unknown errors should be logged
}
