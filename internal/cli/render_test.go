package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"task-tracker/internal/config"
	"task-tracker/internal/domain"
	"task-tracker/internal/services"
)

func newTestRenderer(output string) (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	display := config.NewConfig().Display
	display.Output = output
	display.Color = false
	return NewRenderer(&buf, display), &buf
}

func sampleTask() *domain.TaskDetails {
	info := "first line\nsecond line"
	deadline := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	return &domain.TaskDetails{
		Task: domain.Task{
			ID:        7,
			Title:     "Write report",
			Info:      &info,
			Deadline:  &deadline,
			Status:    domain.StatusUndone,
			CreatedAt: created,
			UpdatedAt: created,
		},
		Categories: []string{"q4", "work"},
	}
}

func TestRenderer_TaskText(t *testing.T) {
	r, buf := newTestRenderer(config.OutputText)

	if err := r.Task(sampleTask()); err != nil {
		t.Fatalf("Task() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"#7 Write report", "undone", "2026-11-01", "q4, work", "  first line\n  second line"} {
		if !strings.Contains(out, want) {
			t.Errorf("Task() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Task() output contains escape codes with color disabled:\n%q", out)
	}
}

func TestRenderer_TaskJSON(t *testing.T) {
	r, buf := newTestRenderer(config.OutputJSON)

	details := sampleTask()
	details.Categories = nil
	if err := r.Task(details); err != nil {
		t.Fatalf("Task() error = %v", err)
	}

	var got map[string]interface{}
	if err := sonic.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got["deadline"] != "2026-11-01" {
		t.Errorf("deadline = %v, want 2026-11-01", got["deadline"])
	}
	if cats, ok := got["categories"].([]interface{}); !ok || len(cats) != 0 {
		t.Errorf("categories = %#v, want empty array", got["categories"])
	}
	if got["info"] != "first line\nsecond line" {
		t.Errorf("info = %v", got["info"])
	}
}

func TestRenderer_Tasks(t *testing.T) {
	r, buf := newTestRenderer(config.OutputText)

	if err := r.Tasks(nil); err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No tasks found") {
		t.Errorf("empty Tasks() = %q", buf.String())
	}

	buf.Reset()
	undated := sampleTask()
	undated.Task.ID = 12
	undated.Task.Deadline = nil
	undated.Categories = nil
	if err := r.Tasks([]*domain.TaskDetails{sampleTask(), undated}); err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Tasks() printed %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "DEADLINE") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2026-11-01") || !strings.HasSuffix(lines[1], "q4, work") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "#12") || !strings.Contains(lines[2], " -  ") {
		t.Errorf("second row = %q", lines[2])
	}
}

func TestRenderer_Categories(t *testing.T) {
	r, buf := newTestRenderer(config.OutputJSON)

	if err := r.Categories(nil); err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty Categories() JSON = %q, want []", buf.String())
	}

	r, buf = newTestRenderer(config.OutputText)
	if err := r.Categories([]domain.CategoryCount{{Name: "home", Count: 1}, {Name: "work", Count: 3}}); err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if buf.String() != "home (1)\nwork (3)\n" {
		t.Errorf("Categories() = %q", buf.String())
	}
}

func TestRenderer_CategoryChange(t *testing.T) {
	r, buf := newTestRenderer(config.OutputText)

	change := &services.CategoryChange{ActionID: 4, Category: "urgent", TaskIDs: []int64{1, 3}}
	if err := r.CategoryChange("Added", change); err != nil {
		t.Fatalf("CategoryChange() error = %v", err)
	}
	if buf.String() != "Added urgent on 2 task(s): #1 #3\n" {
		t.Errorf("CategoryChange() = %q", buf.String())
	}

	r, buf = newTestRenderer(config.OutputJSON)
	if err := r.CategoryChange("Added", &services.CategoryChange{Category: "urgent", TaskIDs: []int64{1}}); err != nil {
		t.Fatalf("CategoryChange() error = %v", err)
	}
	if strings.Contains(buf.String(), "action_id") {
		t.Errorf("a zero action_id should be omitted: %s", buf.String())
	}
}

func TestRenderer_History(t *testing.T) {
	r, buf := newTestRenderer(config.OutputText)

	created := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	history := &services.ActionHistory{
		Actions: []*domain.Action{
			{ID: 2, Op: domain.CategoryOp{Type: domain.ActionCreate, TaskID: 1, Category: "work"}, Restored: true, CreatedAt: created},
			{ID: 1, Op: domain.BatchCategoryDeleteOp{Category: "old", TaskIDs: []int64{1, 2}}, CreatedAt: created},
		},
		Undoable: 1,
		Redoable: 1,
	}
	if err := r.History(history); err != nil {
		t.Fatalf("History() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("History() printed %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "#2") || !strings.HasSuffix(lines[0], "(undone)") {
		t.Errorf("first line = %q", lines[0])
	}
	if strings.Contains(lines[1], "(undone)") || !strings.Contains(lines[1], `Delete "old" from 2 task(s)`) {
		t.Errorf("second line = %q", lines[1])
	}
	if lines[2] != "1 undoable, 1 redoable" {
		t.Errorf("footer = %q", lines[2])
	}

	r, buf = newTestRenderer(config.OutputJSON)
	if err := r.History(history); err != nil {
		t.Fatalf("History() error = %v", err)
	}
	var view historyView
	if err := sonic.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(view.Actions) != 2 || view.Actions[0].Kind != "category" || !view.Actions[0].Restored {
		t.Errorf("history JSON = %+v", view)
	}
	if view.Actions[1].Kind != "batch-category-delete" {
		t.Errorf("second kind = %q", view.Actions[1].Kind)
	}
}

func TestRenderer_Message(t *testing.T) {
	r, buf := newTestRenderer(config.OutputJSON)

	if err := r.Message("Cleared %d action(s)", 3); err != nil {
		t.Fatalf("Message() error = %v", err)
	}
	var view messageView
	if err := sonic.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if view.Message != "Cleared 3 action(s)" {
		t.Errorf("message = %q", view.Message)
	}
}
