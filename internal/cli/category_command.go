package cli

import (
	"context"

	"task-tracker/internal/errors"
)

// CategoryCommand handles the category subcommands
type CategoryCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewCategoryCommand creates a new category command handler
func NewCategoryCommand(app *App) *CategoryCommand {
	return &CategoryCommand{
		app:          app,
		errorHandler: NewErrorHandler(app.logger),
	}
}

func (c *CategoryCommand) usage(command, usage string) error {
	return c.errorHandler.HandleSimple(errors.NewInvalidInputError("command", command, "usage: "+usage))
}

// Add assigns a category to one or more tasks: add <category> <id>...
func (c *CategoryCommand) Add(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return c.usage("category add", "tk category add <category> <id>...")
	}
	ids, err := parseTaskIDs(args[1:])
	if err != nil {
		return c.errorHandler.Handle("add category", err)
	}

	change, err := c.app.api.AddCategory(ctx, ids, args[0])
	if err != nil {
		return c.errorHandler.Handle("add category", err)
	}
	return c.app.renderer.CategoryChange("Added", change)
}

// Rename renames a category on a single task: rename <id> <from> <to>
func (c *CategoryCommand) Rename(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return c.usage("category rename", "tk category rename <id> <from> <to>")
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return c.errorHandler.Handle("rename category", err)
	}

	if err := c.app.api.RenameCategory(ctx, id, args[1], args[2]); err != nil {
		return c.errorHandler.Handle("rename category", err)
	}
	return c.app.renderer.Message("Renamed %q to %q on task #%d", args[1], args[2], id)
}

// Delete removes a category from a single task: delete <id> <category>
func (c *CategoryCommand) Delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return c.usage("category delete", "tk category delete <id> <category>")
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return c.errorHandler.Handle("delete category", err)
	}

	if err := c.app.api.RemoveCategory(ctx, id, args[1]); err != nil {
		return c.errorHandler.Handle("delete category", err)
	}
	return c.app.renderer.Message("Removed %q from task #%d", args[1], id)
}

// BatchRename renames a category on every task carrying it: batch-rename <from> <to>
func (c *CategoryCommand) BatchRename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return c.usage("category batch-rename", "tk category batch-rename <from> <to>")
	}

	change, err := c.app.api.BatchRenameCategory(ctx, args[0], args[1])
	if err != nil {
		return c.errorHandler.Handle("rename category", err)
	}
	return c.app.renderer.CategoryChange("Renamed "+args[0]+" to", change)
}

// BatchDelete removes a category from every task carrying it: batch-delete <category>
func (c *CategoryCommand) BatchDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return c.usage("category batch-delete", "tk category batch-delete <category>")
	}

	change, err := c.app.api.BatchDeleteCategory(ctx, args[0])
	if err != nil {
		return c.errorHandler.Handle("delete category", err)
	}
	return c.app.renderer.CategoryChange("Removed", change)
}

// List prints every category, or the categories of one task when an id is given
func (c *CategoryCommand) List(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		counts, err := c.app.api.ListCategories(ctx)
		if err != nil {
			return c.errorHandler.Handle("list categories", err)
		}
		return c.app.renderer.Categories(counts)
	case 1:
		id, err := parseTaskID(args[0])
		if err != nil {
			return c.errorHandler.Handle("list categories", err)
		}
		categories, err := c.app.api.TaskCategories(ctx, id)
		if err != nil {
			return c.errorHandler.Handle("list categories", err)
		}
		return c.app.renderer.TaskCategoryList(id, categories)
	default:
		return c.usage("category list", "tk category list [id]")
	}
}
