package sqlite

import (
	"context"
	"strconv"
	"strings"
	"time"

	"task-tracker/internal/domain"
	"task-tracker/internal/errors"
)

// TaskRepository stores tasks and keeps the tasks_fts index in step with
// their title and info.
type TaskRepository struct {
	ex Executor
}

func taskKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Get retrieves a task by ID
func (r *TaskRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return QuerySingle(ctx, r.ex, query, ScanTask, "task", taskKey(id), id)
}

// Exists reports whether a task with the given id is stored.
func (r *TaskRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return QueryExists(ctx, r.ex, "check task exists", `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = ?)`, id)
}

// Create inserts a new task. CreatedAt and UpdatedAt are now unless the
// fields backdate the task.
func (r *TaskRepository) Create(ctx context.Context, fields domain.TaskFields, now time.Time) (*domain.Task, error) {
	now = domain.NormalizeTime(now)
	task := &domain.Task{
		Title:     fields.Title,
		Info:      fields.Info,
		Status:    fields.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if task.Status == "" {
		task.Status = domain.StatusUndone
	}
	if fields.Deadline != nil {
		deadline := domain.TruncateDate(*fields.Deadline)
		task.Deadline = &deadline
	}
	if fields.CreatedAt != nil {
		task.CreatedAt = domain.NormalizeTime(*fields.CreatedAt)
		if task.UpdatedAt.Before(task.CreatedAt) {
			task.UpdatedAt = task.CreatedAt
		}
	}

	query := `
	INSERT INTO tasks (title, info, deadline, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	id, err := ExecuteWithLastInsertID(ctx, r.ex, query,
		task.Title, FormatStringPtrForDB(task.Info), FormatDatePtrForDB(task.Deadline),
		string(task.Status), FormatTimeForDB(task.CreatedAt), FormatTimeForDB(task.UpdatedAt))
	if err != nil {
		return nil, err
	}
	task.ID = id

	if err := r.index(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CreateWithID inserts an exact snapshot, id and timestamps included. It is
// used to bring back a deleted task.
func (r *TaskRepository) CreateWithID(ctx context.Context, task *domain.Task) error {
	exists, err := r.Exists(ctx, task.ID)
	if err != nil {
		return err
	}
	if exists {
		return errors.NewDuplicateError("task", taskKey(task.ID))
	}

	query := `
	INSERT INTO tasks (id, title, info, deadline, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = Execute(ctx, r.ex, "insert task with id", query,
		task.ID, task.Title, FormatStringPtrForDB(task.Info), FormatDatePtrForDB(task.Deadline),
		string(task.Status), FormatTimeForDB(task.CreatedAt), FormatTimeForDB(task.UpdatedAt))
	if err != nil {
		return err
	}
	return r.index(ctx, task)
}

// Update applies a partial update. It fails with NoChange without writing
// anything when the update supplies no fields.
func (r *TaskRepository) Update(ctx context.Context, id int64, update domain.TaskUpdate, now time.Time) (*domain.Task, error) {
	if update.IsEmpty() {
		return nil, errors.NewNoChangeError("task", taskKey(id))
	}

	var (
		sets []string
		args []interface{}
	)
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.ClearInfo {
		sets = append(sets, "info = NULL")
	} else if update.Info != nil {
		sets = append(sets, "info = ?")
		args = append(args, *update.Info)
	}
	if update.ClearDeadline {
		sets = append(sets, "deadline = NULL")
	} else if update.Deadline != nil {
		sets = append(sets, "deadline = ?")
		args = append(args, domain.TruncateDate(*update.Deadline).Format(domain.DateLayout))
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.CreatedAt != nil {
		sets = append(sets, "created_at = ?")
		args = append(args, FormatTimeForDB(*update.CreatedAt))
	}
	// RFC3339 UTC strings order like the instants they encode. Column
	// references on the right-hand side see the pre-update row.
	if update.CreatedAt != nil {
		sets = append(sets, "updated_at = MAX(?, ?)")
		args = append(args, FormatTimeForDB(now), FormatTimeForDB(*update.CreatedAt))
	} else {
		sets = append(sets, "updated_at = MAX(?, created_at)")
		args = append(args, FormatTimeForDB(now))
	}
	args = append(args, id)

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if err := ExecuteWithRowsAffected(ctx, r.ex, query, "task", taskKey(id), args...); err != nil {
		return nil, err
	}

	task, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.TouchesIndex() {
		if err := r.reindex(ctx, task); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// Replace overwrites every column of an existing task with the snapshot.
func (r *TaskRepository) Replace(ctx context.Context, task *domain.Task) error {
	query := `
	UPDATE tasks
	SET title = ?, info = ?, deadline = ?, status = ?, created_at = ?, updated_at = ?
	WHERE id = ?`
	err := ExecuteWithRowsAffected(ctx, r.ex, query, "task", taskKey(task.ID),
		task.Title, FormatStringPtrForDB(task.Info), FormatDatePtrForDB(task.Deadline),
		string(task.Status), FormatTimeForDB(task.CreatedAt), FormatTimeForDB(task.UpdatedAt), task.ID)
	if err != nil {
		return err
	}
	return r.reindex(ctx, task)
}

// Delete removes the task row and its index entry.
func (r *TaskRepository) Delete(ctx context.Context, task *domain.Task) error {
	query := `DELETE FROM tasks WHERE id = ?`
	if err := ExecuteWithRowsAffected(ctx, r.ex, query, "task", taskKey(task.ID), task.ID); err != nil {
		return err
	}
	_, err := Execute(ctx, r.ex, "remove task from index", `DELETE FROM tasks_fts WHERE rowid = ?`, task.ID)
	return err
}

var sortColumns = map[domain.SortField]string{
	domain.SortByCreatedAt: "created_at",
	domain.SortByUpdatedAt: "updated_at",
	domain.SortByDeadline:  "deadline",
	domain.SortByTitle:     "title COLLATE NOCASE",
}

// Query lists tasks matching every filter set on q. Sort keys compose in the
// order given and id breaks the remaining ties. Tasks without a deadline
// sort after those with one in either direction.
func (r *TaskRepository) Query(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if q.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*q.Status))
	}
	if q.Category != nil {
		conditions = append(conditions, "id IN (SELECT task_id FROM task_categories WHERE category = ?)")
		args = append(args, *q.Category)
	}
	if q.Text != nil && strings.TrimSpace(*q.Text) != "" {
		conditions = append(conditions, "id IN (SELECT rowid FROM tasks_fts WHERE tasks_fts MATCH ?)")
		args = append(args, ftsQuery(*q.Text))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var order []string
	for _, key := range q.Sort {
		column, ok := sortColumns[key.Field]
		if !ok {
			return nil, errors.NewInvalidInputError("sort", string(key.Field), "unknown sort field")
		}
		dir := "ASC"
		if key.Descending {
			dir = "DESC"
		}
		if key.Field == domain.SortByDeadline {
			order = append(order, "deadline IS NULL")
		}
		order = append(order, column+" "+dir)
	}
	order = append(order, "id ASC")
	query += " ORDER BY " + strings.Join(order, ", ")

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	return QueryMultiple(ctx, r.ex, query, ScanTasks, "tasks", args...)
}

// ftsQuery turns free text into an FTS5 query matching every word, each
// quoted so user input cannot inject FTS operators.
func ftsQuery(text string) string {
	words := strings.Fields(text)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

func (r *TaskRepository) index(ctx context.Context, task *domain.Task) error {
	info := ""
	if task.Info != nil {
		info = *task.Info
	}
	_, err := Execute(ctx, r.ex, "index task",
		`INSERT INTO tasks_fts (rowid, title, info) VALUES (?, ?, ?)`, task.ID, task.Title, info)
	return err
}

func (r *TaskRepository) reindex(ctx context.Context, task *domain.Task) error {
	if _, err := Execute(ctx, r.ex, "remove task from index", `DELETE FROM tasks_fts WHERE rowid = ?`, task.ID); err != nil {
		return err
	}
	return r.index(ctx, task)
}
