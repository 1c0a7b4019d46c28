package errors

import (
	"errors"
	"testing"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		name      string
		errorType ErrorType
		expected  string
	}{
		{"Validation", ErrorTypeValidation, "validation"},
		{"NotFound", ErrorTypeNotFound, "not_found"},
		{"Database", ErrorTypeDatabase, "database"},
		{"InvalidInput", ErrorTypeInvalidInput, "invalid_input"},
		{"Duplicate", ErrorTypeDuplicate, "duplicate"},
		{"NoChange", ErrorTypeNoChange, "no_change"},
		{"NothingToUndo", ErrorTypeNothingToUndo, "nothing_to_undo"},
		{"NothingToRedo", ErrorTypeNothingToRedo, "nothing_to_redo"},
		{"Corruption", ErrorTypeCorruption, "corruption"},
		{"Invariant", ErrorTypeInvariant, "invariant_violation"},
		{"Unknown", ErrorType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.errorType.String()
			if result != tt.expected {
				t.Errorf("ErrorType.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "Error without cause",
			appError: &AppError{
				Type:    ErrorTypeDuplicate,
				Message: "category already exists: work",
			},
			expected: "duplicate: category already exists: work",
		},
		{
			name: "Error with cause",
			appError: &AppError{
				Type:    ErrorTypeDatabase,
				Message: "connection failed",
				Cause:   errors.New("disk I/O error"),
			},
			expected: "database: connection failed (caused by: disk I/O error)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.Error()
			if result != tt.expected {
				t.Errorf("AppError.Error() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("original error")
	appErr := &AppError{Type: ErrorTypeCorruption, Cause: cause}

	if !errors.Is(appErr, cause) {
		t.Errorf("errors.Is should find the wrapped cause")
	}
	if appErr.Unwrap() != cause {
		t.Errorf("AppError.Unwrap() = %v, want %v", appErr.Unwrap(), cause)
	}
}

func TestAppError_Is(t *testing.T) {
	err := NewNotFoundError("task", "7")

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("not found error should match ErrNotFound")
	}
	if errors.Is(err, ErrDuplicate) {
		t.Errorf("not found error should not match ErrDuplicate")
	}
	if !errors.Is(NewNothingToUndoError(), ErrNothingToUndo) {
		t.Errorf("nothing to undo error should match ErrNothingToUndo")
	}
	if errors.Is(err, errors.New("not found")) {
		t.Errorf("AppError should not match a plain error")
	}
}

func TestAppError_Context(t *testing.T) {
	err := &AppError{Type: ErrorTypeValidation}

	if _, ok := err.GetContext("field"); ok {
		t.Errorf("GetContext on empty context should report missing key")
	}

	err.WithContext("field", "title").WithContext("max", 1000)

	if v, ok := err.GetContext("field"); !ok || v != "title" {
		t.Errorf("GetContext(field) = %v, %v", v, ok)
	}
	if v, ok := err.GetContext("max"); !ok || v != 1000 {
		t.Errorf("GetContext(max) = %v, %v", v, ok)
	}
}
