package sqlite

import (
	"database/sql"
	"fmt"

	"task-tracker/internal/domain"
)

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// taskColumns is the column list ScanTask expects, in order.
const taskColumns = "id, title, info, deadline, status, created_at, updated_at"

// ScanTask scans a single task from a database row
func ScanTask(scanner Scanner) (*domain.Task, error) {
	task := &domain.Task{}
	var (
		info      sql.NullString
		deadline  sql.NullString
		status    string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&task.ID, &task.Title, &info, &deadline, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if info.Valid {
		task.Info = &info.String
	}
	if deadline.Valid {
		d, err := domain.ParseDate(deadline.String)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", task.ID, err)
		}
		task.Deadline = &d
	}
	task.Status = domain.TaskStatus(status)
	if !task.Status.IsValid() {
		return nil, fmt.Errorf("task %d: unknown status %q", task.ID, status)
	}
	if task.CreatedAt, err = ParseTimeFromDB(createdAt); err != nil {
		return nil, fmt.Errorf("task %d created_at: %w", task.ID, err)
	}
	if task.UpdatedAt, err = ParseTimeFromDB(updatedAt); err != nil {
		return nil, fmt.Errorf("task %d updated_at: %w", task.ID, err)
	}

	return task, nil
}

// ScanTasks scans multiple tasks from database rows
func ScanTasks(rows Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := ScanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// actionRow is an action as stored, before its payload is decoded.
type actionRow struct {
	ID        int64
	Blob      []byte
	Restored  bool
	CreatedAt string
}

const actionColumns = "id, op_blob, restored, created_at"

// ScanActionRow scans a single ledger row without decoding its payload.
func ScanActionRow(scanner Scanner) (*actionRow, error) {
	row := &actionRow{}
	if err := scanner.Scan(&row.ID, &row.Blob, &row.Restored, &row.CreatedAt); err != nil {
		return nil, err
	}
	return row, nil
}

// ScanActionRows scans multiple ledger rows.
func ScanActionRows(rows Rows) ([]*actionRow, error) {
	var out []*actionRow
	for rows.Next() {
		row, err := ScanActionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScanStrings scans a single text column from every row.
func ScanStrings(rows Rows) ([]string, error) {
	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// ScanIDs scans a single integer column from every row.
func ScanIDs(rows Rows) ([]int64, error) {
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ScanCategoryCounts scans (name, count) rows.
func ScanCategoryCounts(rows Rows) ([]domain.CategoryCount, error) {
	counts := []domain.CategoryCount{}
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
