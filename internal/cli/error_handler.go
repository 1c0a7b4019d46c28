package cli

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"task-tracker/internal/errors"
	"task-tracker/internal/validation"
)

// ErrorHandler provides centralized error handling for command handlers
type ErrorHandler struct {
	logger log.FieldLogger
}

// NewErrorHandler creates a new error handler. A nil logger disables logging.
func NewErrorHandler(logger log.FieldLogger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle provides user-friendly error messages for validation and other errors
func (eh *ErrorHandler) Handle(operation string, err error) error {
	if err == nil {
		return nil
	}
	eh.log(operation, err)
	return fmt.Errorf("failed to %s: %s", operation, eh.message(err))
}

// HandleSimple provides user-friendly error messages without operation context
func (eh *ErrorHandler) HandleSimple(err error) error {
	if err == nil {
		return nil
	}
	eh.log("", err)
	return fmt.Errorf("%s", eh.message(err))
}

func (eh *ErrorHandler) message(err error) string {
	if validationErr, ok := err.(*validation.ValidationError); ok {
		return validationErr.GetUserFriendlyMessage()
	}
	return errors.GetUserMessage(err)
}

// log records system failures at error level. User mistakes are already
// reported on stderr and only show up at debug level.
func (eh *ErrorHandler) log(operation string, err error) {
	if eh.logger == nil {
		return
	}
	entry := eh.logger.WithError(err).WithField("error_code", errors.GetErrorCode(err))
	if operation != "" {
		entry = entry.WithField("command", operation)
	}
	if errors.ShouldLogError(err) {
		entry.Error("command failed")
		return
	}
	entry.Debug("command rejected")
}

// IsValidationError checks if an error is a validation error
func (eh *ErrorHandler) IsValidationError(err error) bool {
	if validation.IsValidationError(err) {
		return true
	}
	return errors.IsErrorType(err, errors.ErrorTypeValidation) || errors.IsErrorType(err, errors.ErrorTypeInvalidInput)
}

// IsNotFoundError checks if an error is a not found error
func (eh *ErrorHandler) IsNotFoundError(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeNotFound)
}

// IsHistoryError reports a ledger that can no longer be replayed and must be cleared.
func (eh *ErrorHandler) IsHistoryError(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeCorruption) || errors.IsErrorType(err, errors.ErrorTypeInvariant)
}

// GetErrorCode returns the error code for structured errors
func (eh *ErrorHandler) GetErrorCode(err error) string {
	return errors.GetErrorCode(err)
}
