package cli

import (
	"context"
	"fmt"
)

// HistoryCommand handles undo, redo and the action history
type HistoryCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewHistoryCommand creates a new history command handler
func NewHistoryCommand(app *App) *HistoryCommand {
	return &HistoryCommand{
		app:          app,
		errorHandler: NewErrorHandler(app.logger),
	}
}

// Undo reverses the most recent action
func (c *HistoryCommand) Undo(ctx context.Context) error {
	action, err := c.app.api.Undo(ctx)
	if err != nil {
		return c.handle("undo", err)
	}
	return c.app.renderer.Action("Undone, applied", action)
}

// Redo reapplies the most recently undone action
func (c *HistoryCommand) Redo(ctx context.Context) error {
	action, err := c.app.api.Redo(ctx)
	if err != nil {
		return c.handle("redo", err)
	}
	return c.app.renderer.Action("Redone, applied", action)
}

// List prints the newest actions; zero uses the configured limit
func (c *HistoryCommand) List(ctx context.Context, limit int) error {
	history, err := c.app.api.ListActions(ctx, limit)
	if err != nil {
		return c.handle("list history", err)
	}
	return c.app.renderer.History(history)
}

// Clear empties the action history
func (c *HistoryCommand) Clear(ctx context.Context) error {
	removed, err := c.app.api.ClearActions(ctx)
	if err != nil {
		return c.handle("clear history", err)
	}
	return c.app.renderer.Message("Cleared %d action(s)", removed)
}

func (c *HistoryCommand) handle(operation string, err error) error {
	handled := c.errorHandler.Handle(operation, err)
	if c.errorHandler.IsHistoryError(err) {
		return fmt.Errorf("%w\nrun `tk history clear` to discard it", handled)
	}
	return handled
}
