package validation

import (
	"fmt"
	"unicode/utf8"

	"task-tracker/internal/config"
	"task-tracker/internal/domain"
)

// TaskValidator provides validation for task and category operations
type TaskValidator struct {
	validator *Validator
}

// NewTaskValidator creates a new task validator
func NewTaskValidator() *TaskValidator {
	return &TaskValidator{
		validator: NewValidator(),
	}
}

// NewTaskValidatorWithConfig creates a task validator using the configured limits
func NewTaskValidatorWithConfig(cfg *config.Config) *TaskValidator {
	return &TaskValidator{
		validator: NewValidatorWithConfig(cfg),
	}
}

// ValidateTitle validates a task title for creation or update
func (tv *TaskValidator) ValidateTitle(title string) error {
	validationError := NewValidationError()
	tv.checkTitle(validationError, title)
	return validationError.Err()
}

func (tv *TaskValidator) checkTitle(ve *ValidationError, title string) {
	trimmed := tv.validator.TrimAndValidateString(title)
	if !tv.validator.IsNonEmptyString(trimmed) {
		ve.AddRequiredError("title")
		return
	}

	maxLen := tv.validator.TitleMaxLength()
	if !tv.validator.IsValidStringLength(trimmed, 1, maxLen) {
		ve.AddInvalidLengthError("title", trimmed, 1, maxLen)
	}
	if !tv.validator.IsSingleLine(trimmed) {
		ve.AddInvalidCharacterError("title", trimmed)
	}
}

func (tv *TaskValidator) checkInfo(ve *ValidationError, info string) {
	maxLen := tv.validator.InfoMaxLength()
	if utf8.RuneCountInString(info) > maxLen {
		ve.AddInvalidLengthError("info", len(info), 0, maxLen)
	}
	if !tv.validator.IsValidText(info) {
		ve.AddInvalidCharacterError("info", nil)
	}
}

// ValidateCategory validates a category name
func (tv *TaskValidator) ValidateCategory(category string) error {
	validationError := NewValidationError()
	tv.checkCategory(validationError, "category", category)
	return validationError.Err()
}

func (tv *TaskValidator) checkCategory(ve *ValidationError, field, category string) {
	trimmed := tv.validator.TrimAndValidateString(category)
	if !tv.validator.IsNonEmptyString(trimmed) {
		ve.AddRequiredError(field)
		return
	}

	maxLen := tv.validator.CategoryMaxLength()
	if !tv.validator.IsValidStringLength(trimmed, 1, maxLen) {
		ve.AddInvalidLengthError(field, trimmed, 1, maxLen)
	}
	if !tv.validator.IsSingleLine(trimmed) {
		ve.AddInvalidCharacterError(field, trimmed)
	}
}

// ValidateCategories validates a list of category names. Names must be
// unique after trimming.
func (tv *TaskValidator) ValidateCategories(categories []string) error {
	validationError := NewValidationError()
	seen := make(map[string]bool, len(categories))
	for _, category := range categories {
		tv.checkCategory(validationError, "categories", category)
		trimmed := tv.validator.TrimAndValidateString(category)
		if seen[trimmed] {
			validationError.AddInvalidValueError("categories", trimmed, "listed more than once")
		}
		seen[trimmed] = true
	}
	return validationError.Err()
}

// ValidateCategoryRename validates both names of a rename
func (tv *TaskValidator) ValidateCategoryRename(from, to string) error {
	validationError := NewValidationError()
	tv.checkCategory(validationError, "from", from)
	tv.checkCategory(validationError, "to", to)
	return validationError.Err()
}

// ValidateTaskID validates a task ID
func (tv *TaskValidator) ValidateTaskID(id int64) error {
	if !tv.validator.IsValidTaskID(id) {
		validationError := NewValidationError()
		validationError.AddInvalidValueError("task_id", id, "must be a positive integer")
		return validationError
	}
	return nil
}

// ValidateTaskIDs validates a non-empty list of distinct task IDs
func (tv *TaskValidator) ValidateTaskIDs(ids []int64) error {
	validationError := NewValidationError()
	if len(ids) == 0 {
		validationError.AddRequiredError("task_ids")
		return validationError
	}

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !tv.validator.IsValidTaskID(id) {
			validationError.AddInvalidValueError("task_ids", id, "must be a positive integer")
		}
		if seen[id] {
			validationError.AddInvalidValueError("task_ids", id, "listed more than once")
		}
		seen[id] = true
	}
	return validationError.Err()
}

// ValidateTaskFields validates the input of a task creation
func (tv *TaskValidator) ValidateTaskFields(fields domain.TaskFields) error {
	validationError := NewValidationError()

	tv.checkTitle(validationError, fields.Title)
	if fields.Info != nil {
		tv.checkInfo(validationError, *fields.Info)
	}
	if fields.Status != "" && !fields.Status.IsValid() {
		validationError.AddInvalidValueError("status", fields.Status, "must be undone, done or archived")
	}
	if fields.CreatedAt != nil && fields.CreatedAt.IsZero() {
		validationError.AddInvalidValueError("created_at", nil, "must be a real timestamp")
	}

	return validationError.Err()
}

// ValidateTaskUpdate validates a partial update of task id
func (tv *TaskValidator) ValidateTaskUpdate(id int64, update domain.TaskUpdate) error {
	validationError := NewValidationError()

	validationError.Merge(tv.ValidateTaskID(id))
	if update.Title != nil {
		tv.checkTitle(validationError, *update.Title)
	}
	if update.Info != nil {
		if update.ClearInfo {
			validationError.AddConflictError("info", "clear_info")
		}
		tv.checkInfo(validationError, *update.Info)
	}
	if update.Deadline != nil && update.ClearDeadline {
		validationError.AddConflictError("deadline", "clear_deadline")
	}
	if update.Status != nil && !update.Status.IsValid() {
		validationError.AddInvalidValueError("status", *update.Status, "must be undone, done or archived")
	}
	if update.CreatedAt != nil && update.CreatedAt.IsZero() {
		validationError.AddInvalidValueError("created_at", nil, "must be a real timestamp")
	}

	return validationError.Err()
}

// ValidateQuery validates task list filters
func (tv *TaskValidator) ValidateQuery(query domain.TaskQuery) error {
	validationError := NewValidationError()

	if query.Status != nil && !query.Status.IsValid() {
		validationError.AddInvalidValueError("status", *query.Status, "must be undone, done or archived")
	}
	if query.Category != nil {
		tv.checkCategory(validationError, "category", *query.Category)
	}
	if query.Text != nil && !tv.validator.IsNonEmptyString(*query.Text) {
		validationError.AddRequiredError("text")
	}
	if query.Limit < 0 {
		validationError.AddInvalidValueError("limit", query.Limit, "cannot be negative")
	}

	seen := make(map[domain.SortField]bool, len(query.Sort))
	for _, key := range query.Sort {
		if !key.Field.IsValid() {
			validationError.AddInvalidFormatError("sort", string(key.Field), "created-at, updated-at, deadline or title")
			continue
		}
		if seen[key.Field] {
			validationError.AddInvalidValueError("sort", key.String(), fmt.Sprintf("%s is already a sort key", key.Field))
		}
		seen[key.Field] = true
	}

	return validationError.Err()
}

// ValidateLimit validates a page size where zero means unlimited
func (tv *TaskValidator) ValidateLimit(limit int) error {
	if limit < 0 {
		validationError := NewValidationError()
		validationError.AddInvalidValueError("limit", limit, "cannot be negative")
		return validationError
	}
	return nil
}

// GetValidCategory returns a cleaned category name if valid
func (tv *TaskValidator) GetValidCategory(category string) (string, error) {
	if err := tv.ValidateCategory(category); err != nil {
		return "", err
	}
	return tv.validator.TrimAndValidateString(category), nil
}
