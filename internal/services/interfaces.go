package services

import (
	"context"

	"task-tracker/internal/domain"
)

// ActionHistory is a page of the action ledger together with the sizes of
// the undo and redo stacks.
type ActionHistory struct {
	Actions  []*domain.Action `json:"actions"`
	Undoable int              `json:"undoable"`
	Redoable int              `json:"redoable"`
}

// CategoryChange reports which tasks a batch category operation touched.
type CategoryChange struct {
	ActionID int64   `json:"action_id,omitempty"`
	Category string  `json:"category"`
	TaskIDs  []int64 `json:"task_ids"`
}

// Operations is every logical operation on the task store. Mutations are
// recorded in the action ledger and can be reversed with Undo and Redo.
type Operations interface {
	// Tasks
	AddTask(ctx context.Context, fields domain.TaskFields, categories []string) (*domain.TaskDetails, error)
	EditTask(ctx context.Context, id int64, update domain.TaskUpdate) (*domain.Task, error)
	RemoveTask(ctx context.Context, id int64) (*domain.TaskDetails, error)
	ReadTask(ctx context.Context, id int64) (*domain.TaskDetails, error)
	ListTasks(ctx context.Context, query domain.TaskQuery) ([]*domain.TaskDetails, error)

	// Categories
	AddCategory(ctx context.Context, taskID int64, category string) (int64, error)
	BatchAddCategory(ctx context.Context, taskIDs []int64, category string) (*CategoryChange, error)
	RenameCategory(ctx context.Context, taskID int64, from, to string) error
	RemoveCategory(ctx context.Context, taskID int64, category string) error
	BatchRenameCategory(ctx context.Context, from, to string) (*CategoryChange, error)
	BatchDeleteCategory(ctx context.Context, category string) (*CategoryChange, error)
	ListCategories(ctx context.Context) ([]domain.CategoryCount, error)
	TaskCategories(ctx context.Context, taskID int64) ([]string, error)

	// History
	Undo(ctx context.Context) (*domain.Action, error)
	Redo(ctx context.Context) (*domain.Action, error)
	ListActions(ctx context.Context, limit int) (*ActionHistory, error)
	ClearActions(ctx context.Context) (int64, error)
}
