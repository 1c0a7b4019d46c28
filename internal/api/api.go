package api

import (
	"context"
	"strings"

	"task-tracker/internal/config"
	"task-tracker/internal/domain"
	"task-tracker/internal/errors"
	"task-tracker/internal/services"
	"task-tracker/internal/validation"
)

// API is the entry point used by the command line. It validates and cleans
// user input before handing it to the operation layer.
type API interface {
	// Tasks
	AddTask(ctx context.Context, fields domain.TaskFields, categories []string) (*domain.TaskDetails, error)
	EditTask(ctx context.Context, id int64, update domain.TaskUpdate) (*domain.Task, error)
	RemoveTask(ctx context.Context, id int64) (*domain.TaskDetails, error)
	ReadTask(ctx context.Context, id int64) (*domain.TaskDetails, error)
	ListTasks(ctx context.Context, query domain.TaskQuery) ([]*domain.TaskDetails, error)

	// Categories
	AddCategory(ctx context.Context, taskIDs []int64, category string) (*services.CategoryChange, error)
	RenameCategory(ctx context.Context, taskID int64, from, to string) error
	RemoveCategory(ctx context.Context, taskID int64, category string) error
	BatchRenameCategory(ctx context.Context, from, to string) (*services.CategoryChange, error)
	BatchDeleteCategory(ctx context.Context, category string) (*services.CategoryChange, error)
	ListCategories(ctx context.Context) ([]domain.CategoryCount, error)
	TaskCategories(ctx context.Context, taskID int64) ([]string, error)

	// History
	Undo(ctx context.Context) (*domain.Action, error)
	Redo(ctx context.Context) (*domain.Action, error)
	ListActions(ctx context.Context, limit int) (*services.ActionHistory, error)
	ClearActions(ctx context.Context) (int64, error)
}

type apiImpl struct {
	ops           services.Operations
	taskValidator *validation.TaskValidator
	historyLimit  int
}

// New creates an API on top of ops. A nil cfg uses the default limits.
func New(ops services.Operations, cfg *config.Config) API {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &apiImpl{
		ops:           ops,
		taskValidator: validation.NewTaskValidatorWithConfig(cfg),
		historyLimit:  cfg.History.DefaultLimit,
	}
}

// invalid converts a validation failure into the application error the CLI
// knows how to report.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*validation.ValidationError); ok {
		return errors.NewValidationError(ve.GetUserFriendlyMessage(), ve)
	}
	return errors.NewValidationError(err.Error(), err)
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// ========== Tasks ==========

func (a *apiImpl) AddTask(ctx context.Context, fields domain.TaskFields, categories []string) (*domain.TaskDetails, error) {
	if err := a.taskValidator.ValidateTaskFields(fields); err != nil {
		return nil, invalid(err)
	}
	if err := a.taskValidator.ValidateCategories(categories); err != nil {
		return nil, invalid(err)
	}

	fields.Title = strings.TrimSpace(fields.Title)
	if fields.Status == "" {
		fields.Status = domain.StatusUndone
	}
	return a.ops.AddTask(ctx, fields, trimAll(categories))
}

func (a *apiImpl) EditTask(ctx context.Context, id int64, update domain.TaskUpdate) (*domain.Task, error) {
	if err := a.taskValidator.ValidateTaskUpdate(id, update); err != nil {
		return nil, invalid(err)
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		update.Title = &title
	}
	return a.ops.EditTask(ctx, id, update)
}

func (a *apiImpl) RemoveTask(ctx context.Context, id int64) (*domain.TaskDetails, error) {
	if err := a.taskValidator.ValidateTaskID(id); err != nil {
		return nil, invalid(err)
	}
	return a.ops.RemoveTask(ctx, id)
}

func (a *apiImpl) ReadTask(ctx context.Context, id int64) (*domain.TaskDetails, error) {
	if err := a.taskValidator.ValidateTaskID(id); err != nil {
		return nil, invalid(err)
	}
	return a.ops.ReadTask(ctx, id)
}

func (a *apiImpl) ListTasks(ctx context.Context, query domain.TaskQuery) ([]*domain.TaskDetails, error) {
	if err := a.taskValidator.ValidateQuery(query); err != nil {
		return nil, invalid(err)
	}

	if query.Category != nil {
		category := strings.TrimSpace(*query.Category)
		query.Category = &category
	}
	return a.ops.ListTasks(ctx, query)
}

// ========== Categories ==========

// AddCategory attaches category to every listed task. A single task is
// recorded as a plain category action so undo output stays specific.
func (a *apiImpl) AddCategory(ctx context.Context, taskIDs []int64, category string) (*services.CategoryChange, error) {
	if err := a.taskValidator.ValidateTaskIDs(taskIDs); err != nil {
		return nil, invalid(err)
	}
	name, err := a.taskValidator.GetValidCategory(category)
	if err != nil {
		return nil, invalid(err)
	}

	if len(taskIDs) == 1 {
		actionID, err := a.ops.AddCategory(ctx, taskIDs[0], name)
		if err != nil {
			return nil, err
		}
		return &services.CategoryChange{ActionID: actionID, Category: name, TaskIDs: taskIDs}, nil
	}
	return a.ops.BatchAddCategory(ctx, taskIDs, name)
}

func (a *apiImpl) RenameCategory(ctx context.Context, taskID int64, from, to string) error {
	ve := validation.NewValidationError()
	ve.Merge(a.taskValidator.ValidateTaskID(taskID))
	ve.Merge(a.taskValidator.ValidateCategoryRename(from, to))
	if err := ve.Err(); err != nil {
		return invalid(err)
	}
	return a.ops.RenameCategory(ctx, taskID, strings.TrimSpace(from), strings.TrimSpace(to))
}

func (a *apiImpl) RemoveCategory(ctx context.Context, taskID int64, category string) error {
	ve := validation.NewValidationError()
	ve.Merge(a.taskValidator.ValidateTaskID(taskID))
	ve.Merge(a.taskValidator.ValidateCategory(category))
	if err := ve.Err(); err != nil {
		return invalid(err)
	}
	return a.ops.RemoveCategory(ctx, taskID, strings.TrimSpace(category))
}

func (a *apiImpl) BatchRenameCategory(ctx context.Context, from, to string) (*services.CategoryChange, error) {
	if err := a.taskValidator.ValidateCategoryRename(from, to); err != nil {
		return nil, invalid(err)
	}
	return a.ops.BatchRenameCategory(ctx, strings.TrimSpace(from), strings.TrimSpace(to))
}

func (a *apiImpl) BatchDeleteCategory(ctx context.Context, category string) (*services.CategoryChange, error) {
	name, err := a.taskValidator.GetValidCategory(category)
	if err != nil {
		return nil, invalid(err)
	}
	return a.ops.BatchDeleteCategory(ctx, name)
}

func (a *apiImpl) ListCategories(ctx context.Context) ([]domain.CategoryCount, error) {
	return a.ops.ListCategories(ctx)
}

func (a *apiImpl) TaskCategories(ctx context.Context, taskID int64) ([]string, error) {
	if err := a.taskValidator.ValidateTaskID(taskID); err != nil {
		return nil, invalid(err)
	}
	return a.ops.TaskCategories(ctx, taskID)
}

// ========== History ==========

func (a *apiImpl) Undo(ctx context.Context) (*domain.Action, error) {
	return a.ops.Undo(ctx)
}

func (a *apiImpl) Redo(ctx context.Context) (*domain.Action, error) {
	return a.ops.Redo(ctx)
}

// ListActions returns the newest actions. A zero limit falls back to the
// configured default.
func (a *apiImpl) ListActions(ctx context.Context, limit int) (*services.ActionHistory, error) {
	if err := a.taskValidator.ValidateLimit(limit); err != nil {
		return nil, invalid(err)
	}
	if limit == 0 {
		limit = a.historyLimit
	}
	return a.ops.ListActions(ctx, limit)
}

func (a *apiImpl) ClearActions(ctx context.Context) (int64, error) {
	return a.ops.ClearActions(ctx)
}
