package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"task-tracker/internal/config"
)

// Validator provides common validation utilities
type Validator struct {
	config *config.Config
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		config: nil, // Use defaults
	}
}

// NewValidatorWithConfig creates a new validator instance with configuration
func NewValidatorWithConfig(cfg *config.Config) *Validator {
	return &Validator{
		config: cfg,
	}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidStringLength checks if the rune count of the trimmed string is
// within the specified range
func (v *Validator) IsValidStringLength(s string, min, max int) bool {
	length := utf8.RuneCountInString(strings.TrimSpace(s))
	return length >= min && length <= max
}

// IsSingleLine reports whether s is valid UTF-8 free of control characters.
func (v *Validator) IsSingleLine(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IsValidText reports whether s is valid UTF-8 whose only control characters
// are newlines and tabs.
func (v *Validator) IsValidText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}

// IsValidTaskID checks if a task ID is valid (positive)
func (v *Validator) IsValidTaskID(id int64) bool {
	return id > 0
}

// TrimAndValidateString trims whitespace and returns the cleaned string
func (v *Validator) TrimAndValidateString(s string) string {
	return strings.TrimSpace(s)
}

// TitleMaxLength returns configured maximum title length or default
func (v *Validator) TitleMaxLength() int {
	if v.config != nil {
		return v.config.Validation.TitleMaxLength
	}
	return 1000
}

// InfoMaxLength returns configured maximum info length or default
func (v *Validator) InfoMaxLength() int {
	if v.config != nil {
		return v.config.Validation.InfoMaxLength
	}
	return 10000
}

// CategoryMaxLength returns configured maximum category length or default
func (v *Validator) CategoryMaxLength() int {
	if v.config != nil {
		return v.config.Validation.CategoryMaxLength
	}
	return 200
}
