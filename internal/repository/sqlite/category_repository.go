package sqlite

import (
	"context"
	"fmt"

	"task-tracker/internal/domain"
	"task-tracker/internal/errors"
)

// CategoryRepository manages the task/category assignments. Presence is
// always checked with an explicit read before writing.
type CategoryRepository struct {
	ex Executor
}

func categoryKey(taskID int64, category string) string {
	return fmt.Sprintf("task %d: %s", taskID, category)
}

// Exists reports whether category is assigned to the task.
func (r *CategoryRepository) Exists(ctx context.Context, taskID int64, category string) (bool, error) {
	return QueryExists(ctx, r.ex, "check category exists",
		`SELECT EXISTS(SELECT 1 FROM task_categories WHERE task_id = ? AND category = ?)`, taskID, category)
}

// Assign adds category to the task. It fails with Duplicate when the pair
// already exists.
func (r *CategoryRepository) Assign(ctx context.Context, taskID int64, category string) error {
	exists, err := r.Exists(ctx, taskID, category)
	if err != nil {
		return err
	}
	if exists {
		return errors.NewDuplicateError("category", categoryKey(taskID, category))
	}

	_, err = Execute(ctx, r.ex, "assign category",
		`INSERT INTO task_categories (task_id, category) VALUES (?, ?)`, taskID, category)
	return err
}

// BatchAssign assigns each category to the task in order.
func (r *CategoryRepository) BatchAssign(ctx context.Context, taskID int64, categories []string) error {
	for _, category := range categories {
		if err := r.Assign(ctx, taskID, category); err != nil {
			return err
		}
	}
	return nil
}

// AssignToTasks assigns category to each of the tasks.
func (r *CategoryRepository) AssignToTasks(ctx context.Context, taskIDs []int64, category string) error {
	for _, id := range taskIDs {
		if err := r.Assign(ctx, id, category); err != nil {
			return err
		}
	}
	return nil
}

// Unassign removes category from the task. It fails with NotFound when the
// pair does not exist.
func (r *CategoryRepository) Unassign(ctx context.Context, taskID int64, category string) error {
	exists, err := r.Exists(ctx, taskID, category)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewNotFoundError("category", categoryKey(taskID, category))
	}

	_, err = Execute(ctx, r.ex, "unassign category",
		`DELETE FROM task_categories WHERE task_id = ? AND category = ?`, taskID, category)
	return err
}

// UnassignAll removes every category of the task.
func (r *CategoryRepository) UnassignAll(ctx context.Context, taskID int64) error {
	_, err := Execute(ctx, r.ex, "unassign task categories",
		`DELETE FROM task_categories WHERE task_id = ?`, taskID)
	return err
}

// Rename renames a category on one task. It fails with NotFound when from is
// not assigned and with Duplicate when to already is.
func (r *CategoryRepository) Rename(ctx context.Context, taskID int64, from, to string) error {
	exists, err := r.Exists(ctx, taskID, from)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewNotFoundError("category", categoryKey(taskID, from))
	}
	clash, err := r.Exists(ctx, taskID, to)
	if err != nil {
		return err
	}
	if clash {
		return errors.NewDuplicateError("category", categoryKey(taskID, to))
	}

	_, err = Execute(ctx, r.ex, "rename category",
		`UPDATE task_categories SET category = ? WHERE task_id = ? AND category = ?`, to, taskID, from)
	return err
}

// BatchRename renames from to to on every task carrying it and returns the
// ids of the renamed tasks. It fails with Duplicate when a task carries both
// names, and renames nothing in that case.
func (r *CategoryRepository) BatchRename(ctx context.Context, from, to string) ([]int64, error) {
	clashes, err := QueryMultiple(ctx, r.ex, `
	SELECT a.task_id FROM task_categories a
	JOIN task_categories b ON b.task_id = a.task_id
	WHERE a.category = ? AND b.category = ?
	ORDER BY a.task_id
	LIMIT 1`, ScanIDs, "category clashes", from, to)
	if err != nil {
		return nil, err
	}
	if len(clashes) > 0 {
		return nil, errors.NewDuplicateError("category", categoryKey(clashes[0], to))
	}

	ids, err := r.TaskIDsFor(ctx, from)
	if err != nil {
		return nil, err
	}
	_, err = Execute(ctx, r.ex, "batch rename category",
		`UPDATE task_categories SET category = ? WHERE category = ?`, to, from)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// BatchUnassign removes category from every task and returns the ids of the
// tasks that carried it.
func (r *CategoryRepository) BatchUnassign(ctx context.Context, category string) ([]int64, error) {
	ids, err := r.TaskIDsFor(ctx, category)
	if err != nil {
		return nil, err
	}
	_, err = Execute(ctx, r.ex, "batch unassign category",
		`DELETE FROM task_categories WHERE category = ?`, category)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListForTask returns the task's categories sorted by name.
func (r *CategoryRepository) ListForTask(ctx context.Context, taskID int64) ([]string, error) {
	return QueryMultiple(ctx, r.ex,
		`SELECT category FROM task_categories WHERE task_id = ? ORDER BY category`,
		ScanStrings, "task categories", taskID)
}

// ListAll returns every category name with its assignment count, sorted by name.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]domain.CategoryCount, error) {
	return QueryMultiple(ctx, r.ex, `
	SELECT category, COUNT(*) FROM task_categories
	GROUP BY category
	ORDER BY category`, ScanCategoryCounts, "categories")
}

// TaskIDsFor returns the ids of the tasks carrying category, ascending.
func (r *CategoryRepository) TaskIDsFor(ctx context.Context, category string) ([]int64, error) {
	return QueryMultiple(ctx, r.ex,
		`SELECT task_id FROM task_categories WHERE category = ? ORDER BY task_id`,
		ScanIDs, "category tasks", category)
}
