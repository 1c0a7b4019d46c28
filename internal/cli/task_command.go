package cli

import (
	"context"
	"strings"

	"task-tracker/internal/domain"
	"task-tracker/internal/errors"
)

// TaskCommand handles the task subcommands
type TaskCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewTaskCommand creates a new task command handler
func NewTaskCommand(app *App) *TaskCommand {
	return &TaskCommand{
		app:          app,
		errorHandler: NewErrorHandler(app.logger),
	}
}

// TaskAddOptions holds the flags of task add. Empty strings are unset.
type TaskAddOptions struct {
	Info       string
	Deadline   string
	Status     string
	CreatedAt  string
	Categories []string
}

// TaskEditOptions holds the flags of task edit. Nil fields are unset.
type TaskEditOptions struct {
	Title         *string
	Info          *string
	ClearInfo     bool
	Deadline      *string
	ClearDeadline bool
	Status        *string
	CreatedAt     *string
}

// TaskListOptions holds the flags of task list.
type TaskListOptions struct {
	Status   string
	Category string
	Text     string
	Sort     []string
	Limit    int
}

// Add creates a task whose title is the joined arguments
func (c *TaskCommand) Add(ctx context.Context, args []string, opts TaskAddOptions) error {
	if len(args) == 0 {
		return c.errorHandler.HandleSimple(errors.NewInvalidInputError("command", "task add", "usage: tk task add \"title\" [flags]"))
	}

	fields := domain.TaskFields{Title: strings.Join(args, " ")}
	if opts.Info != "" {
		info := opts.Info
		fields.Info = &info
	}
	if opts.Deadline != "" {
		deadline, err := parseDeadline(opts.Deadline)
		if err != nil {
			return c.errorHandler.Handle("add task", err)
		}
		fields.Deadline = &deadline
	}
	if opts.Status != "" {
		status, err := parseStatus(opts.Status)
		if err != nil {
			return c.errorHandler.Handle("add task", err)
		}
		fields.Status = status
	}
	if opts.CreatedAt != "" {
		createdAt, err := c.app.parseTimestamp("created_at", opts.CreatedAt)
		if err != nil {
			return c.errorHandler.Handle("add task", err)
		}
		fields.CreatedAt = &createdAt
	}

	details, err := c.app.api.AddTask(ctx, fields, opts.Categories)
	if err != nil {
		return c.errorHandler.Handle("add task", err)
	}
	return c.app.renderer.TaskChanged("Added task", details.Task, details.Categories)
}

// Edit applies the given fields to the task named by args[0]
func (c *TaskCommand) Edit(ctx context.Context, args []string, opts TaskEditOptions) error {
	if len(args) != 1 {
		return c.errorHandler.HandleSimple(errors.NewInvalidInputError("command", "task edit", "usage: tk task edit <id> [flags]"))
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return c.errorHandler.Handle("edit task", err)
	}

	update := domain.TaskUpdate{
		Title:         opts.Title,
		Info:          opts.Info,
		ClearInfo:     opts.ClearInfo,
		ClearDeadline: opts.ClearDeadline,
	}
	if opts.Deadline != nil {
		deadline, err := parseDeadline(*opts.Deadline)
		if err != nil {
			return c.errorHandler.Handle("edit task", err)
		}
		update.Deadline = &deadline
	}
	if opts.Status != nil {
		status, err := parseStatus(*opts.Status)
		if err != nil {
			return c.errorHandler.Handle("edit task", err)
		}
		update.Status = &status
	}
	if opts.CreatedAt != nil {
		createdAt, err := c.app.parseTimestamp("created_at", *opts.CreatedAt)
		if err != nil {
			return c.errorHandler.Handle("edit task", err)
		}
		update.CreatedAt = &createdAt
	}

	task, err := c.app.api.EditTask(ctx, id, update)
	if err != nil {
		return c.errorHandler.Handle("edit task", err)
	}
	return c.app.renderer.TaskChanged("Updated task", *task, nil)
}

// Delete removes the tasks named by args, one undoable action per task
func (c *TaskCommand) Delete(ctx context.Context, args []string) error {
	ids, err := parseTaskIDs(args)
	if err != nil {
		return c.errorHandler.Handle("delete task", err)
	}
	if len(ids) == 0 {
		return c.errorHandler.HandleSimple(errors.NewInvalidInputError("command", "task delete", "usage: tk task delete <id>..."))
	}

	for _, id := range ids {
		removed, err := c.app.api.RemoveTask(ctx, id)
		if err != nil {
			return c.errorHandler.Handle("delete task", err)
		}
		if err := c.app.renderer.TaskChanged("Deleted task", removed.Task, removed.Categories); err != nil {
			return err
		}
	}
	return nil
}

// Read shows a single task
func (c *TaskCommand) Read(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return c.errorHandler.HandleSimple(errors.NewInvalidInputError("command", "task read", "usage: tk task read <id>"))
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return c.errorHandler.Handle("read task", err)
	}

	details, err := c.app.api.ReadTask(ctx, id)
	if err != nil {
		return c.errorHandler.Handle("read task", err)
	}
	return c.app.renderer.Task(details)
}

// List prints the tasks matching the filters
func (c *TaskCommand) List(ctx context.Context, opts TaskListOptions) error {
	query := domain.TaskQuery{Limit: opts.Limit}
	if opts.Status != "" {
		status, err := parseStatus(opts.Status)
		if err != nil {
			return c.errorHandler.Handle("list tasks", err)
		}
		query.Status = &status
	}
	if opts.Category != "" {
		category := opts.Category
		query.Category = &category
	}
	if opts.Text != "" {
		text := opts.Text
		query.Text = &text
	}
	for _, raw := range opts.Sort {
		for _, part := range strings.Split(raw, ",") {
			key, err := domain.ParseSortKey(part)
			if err != nil {
				return c.errorHandler.Handle("list tasks", errors.NewInvalidInputError("sort", part, err.Error()))
			}
			query.Sort = append(query.Sort, key)
		}
	}

	tasks, err := c.app.api.ListTasks(ctx, query)
	if err != nil {
		return c.errorHandler.Handle("list tasks", err)
	}
	return c.app.renderer.Tasks(tasks)
}
