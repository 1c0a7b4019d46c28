package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout used for deadlines, which carry no time of day.
const DateLayout = "2006-01-02"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusUndone   TaskStatus = "undone"
	StatusDone     TaskStatus = "done"
	StatusArchived TaskStatus = "archived"
)

// ParseTaskStatus converts user input into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("unknown task status %q (expected undone, done or archived)", s)
	}
	return status, nil
}

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusUndone, StatusDone, StatusArchived:
		return true
	}
	return false
}

func (s TaskStatus) String() string {
	return string(s)
}

// Task represents a task in the domain model.
// Categories are not part of the row; see TaskDetails.
type Task struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Info      *string    `json:"info,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Status    TaskStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsValid checks the invariants every stored task must satisfy.
func (t Task) IsValid() bool {
	if strings.TrimSpace(t.Title) == "" {
		return false
	}
	if !t.Status.IsValid() {
		return false
	}
	return !t.UpdatedAt.Before(t.CreatedAt)
}

func (t Task) String() string {
	return fmt.Sprintf("#%d %s", t.ID, t.Title)
}

// TaskFields holds the values needed to create a task.
type TaskFields struct {
	Title    string
	Info     *string
	Deadline *time.Time
	Status   TaskStatus
	// CreatedAt backdates the task when set.
	CreatedAt *time.Time
}

// TaskUpdate is a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Title         *string
	Info          *string
	ClearInfo     bool
	Deadline      *time.Time
	ClearDeadline bool
	Status        *TaskStatus
	CreatedAt     *time.Time
}

// FieldCount returns how many fields the update supplies.
func (u TaskUpdate) FieldCount() int {
	n := 0
	if u.Title != nil {
		n++
	}
	if u.Info != nil || u.ClearInfo {
		n++
	}
	if u.Deadline != nil || u.ClearDeadline {
		n++
	}
	if u.Status != nil {
		n++
	}
	if u.CreatedAt != nil {
		n++
	}
	return n
}

// IsEmpty reports whether the update supplies no fields at all.
func (u TaskUpdate) IsEmpty() bool {
	return u.FieldCount() == 0
}

// TouchesIndex reports whether the searchable text changes.
func (u TaskUpdate) TouchesIndex() bool {
	return u.Title != nil || u.Info != nil || u.ClearInfo
}

// TaskDetails is the read model of a task together with its categories.
// It doubles as the snapshot stored in task ledger records.
type TaskDetails struct {
	Task       Task     `json:"task"`
	Categories []string `json:"categories"`
}

// NormalizeTime converts t to the precision the store keeps.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// TruncateDate drops the time of day, keeping the calendar date of t.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
