package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"task-tracker/internal/config"
	"task-tracker/internal/domain"
	"task-tracker/internal/services"
)

var (
	colorAccent   = lipgloss.Color("#5f9fb0")
	colorMuted    = lipgloss.Color("#6c757d")
	colorUndone   = lipgloss.Color("#d16d7a")
	colorDone     = lipgloss.Color("#2e8b57")
	colorCategory = lipgloss.Color("#f39c12")
)

// Renderer writes command results either as styled text or as JSON.
type Renderer struct {
	out        io.Writer
	json       bool
	timeFormat string

	header   lipgloss.Style
	id       lipgloss.Style
	muted    lipgloss.Style
	category lipgloss.Style
	statuses map[domain.TaskStatus]lipgloss.Style
}

// NewRenderer creates a renderer for out using the display settings.
func NewRenderer(out io.Writer, display config.DisplayConfig) *Renderer {
	lr := lipgloss.NewRenderer(out)
	if !display.Color {
		lr.SetColorProfile(termenv.Ascii)
	}

	return &Renderer{
		out:        out,
		json:       display.Output == config.OutputJSON,
		timeFormat: display.TimeFormat,
		header:     lr.NewStyle().Bold(true),
		id:         lr.NewStyle().Foreground(colorAccent).Bold(true),
		muted:      lr.NewStyle().Foreground(colorMuted),
		category:   lr.NewStyle().Foreground(colorCategory),
		statuses: map[domain.TaskStatus]lipgloss.Style{
			domain.StatusUndone:   lr.NewStyle().Foreground(colorUndone).Bold(true),
			domain.StatusDone:     lr.NewStyle().Foreground(colorDone).Bold(true),
			domain.StatusArchived: lr.NewStyle().Foreground(colorMuted),
		},
	}
}

// ========== JSON views ==========

type taskView struct {
	ID         int64             `json:"id"`
	Title      string            `json:"title"`
	Info       *string           `json:"info,omitempty"`
	Deadline   *string           `json:"deadline,omitempty"`
	Status     domain.TaskStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Categories []string          `json:"categories"`
}

type actionView struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Restored    bool      `json:"restored"`
	CreatedAt   time.Time `json:"created_at"`
}

type historyView struct {
	Actions  []actionView `json:"actions"`
	Undoable int          `json:"undoable"`
	Redoable int          `json:"redoable"`
}

type messageView struct {
	Message string `json:"message"`
}

func newTaskView(task domain.Task, categories []string) taskView {
	view := taskView{
		ID:         task.ID,
		Title:      task.Title,
		Info:       task.Info,
		Status:     task.Status,
		CreatedAt:  task.CreatedAt,
		UpdatedAt:  task.UpdatedAt,
		Categories: categories,
	}
	if view.Categories == nil {
		view.Categories = []string{}
	}
	if task.Deadline != nil {
		deadline := task.Deadline.Format(domain.DateLayout)
		view.Deadline = &deadline
	}
	return view
}

func newActionView(action *domain.Action) actionView {
	return actionView{
		ID:          action.ID,
		Kind:        action.Op.Kind().String(),
		Description: action.Op.Describe(),
		Restored:    action.Restored,
		CreatedAt:   action.CreatedAt,
	}
}

func (r *Renderer) writeJSON(v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = append(data, '\n')
	_, err = r.out.Write(data)
	return err
}

// ========== Output ==========

// Message prints a confirmation line.
func (r *Renderer) Message(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if r.json {
		return r.writeJSON(messageView{Message: msg})
	}
	_, err := fmt.Fprintln(r.out, msg)
	return err
}

// TaskChanged prints a task after a mutation, prefixed with verb.
func (r *Renderer) TaskChanged(verb string, task domain.Task, categories []string) error {
	if r.json {
		return r.writeJSON(newTaskView(task, categories))
	}
	_, err := fmt.Fprintf(r.out, "%s %s %s\n", verb, r.id.Render(fmt.Sprintf("#%d", task.ID)), task.Title)
	return err
}

// Task prints every field of one task.
func (r *Renderer) Task(details *domain.TaskDetails) error {
	if r.json {
		return r.writeJSON(newTaskView(details.Task, details.Categories))
	}

	task := details.Task
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.id.Render(fmt.Sprintf("#%d", task.ID)), r.header.Render(task.Title))
	fmt.Fprintf(&b, "  %s %s\n", r.muted.Render("status:    "), r.status(task.Status))
	if task.Deadline != nil {
		fmt.Fprintf(&b, "  %s %s\n", r.muted.Render("deadline:  "), task.Deadline.Format(domain.DateLayout))
	}
	if len(details.Categories) > 0 {
		fmt.Fprintf(&b, "  %s %s\n", r.muted.Render("categories:"), r.categories(details.Categories))
	}
	fmt.Fprintf(&b, "  %s %s\n", r.muted.Render("created:   "), r.time(task.CreatedAt))
	fmt.Fprintf(&b, "  %s %s\n", r.muted.Render("updated:   "), r.time(task.UpdatedAt))
	if task.Info != nil && *task.Info != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(*task.Info, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

// Tasks prints one row per task.
func (r *Renderer) Tasks(tasks []*domain.TaskDetails) error {
	if r.json {
		views := make([]taskView, 0, len(tasks))
		for _, details := range tasks {
			views = append(views, newTaskView(details.Task, details.Categories))
		}
		return r.writeJSON(views)
	}

	if len(tasks) == 0 {
		_, err := fmt.Fprintln(r.out, "No tasks found")
		return err
	}

	idWidth := 3
	for _, details := range tasks {
		if w := len(fmt.Sprintf("#%d", details.Task.ID)); w > idWidth {
			idWidth = w
		}
	}

	var b strings.Builder
	b.WriteString(r.header.Render(
		fmt.Sprintf("%-*s  %-8s  %-10s  %s", idWidth, "ID", "STATUS", "DEADLINE", "TITLE")))
	b.WriteString("\n")
	for _, details := range tasks {
		task := details.Task
		deadline := "-"
		if task.Deadline != nil {
			deadline = task.Deadline.Format(domain.DateLayout)
		}
		fmt.Fprintf(&b, "%s  %s  %-10s  %s",
			r.id.Width(idWidth).Render(fmt.Sprintf("#%d", task.ID)),
			r.statusStyle(task.Status).Width(8).Render(string(task.Status)),
			deadline,
			task.Title)
		if len(details.Categories) > 0 {
			fmt.Fprintf(&b, "  %s", r.categories(details.Categories))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

// Categories prints every category with its task count.
func (r *Renderer) Categories(counts []domain.CategoryCount) error {
	if r.json {
		if counts == nil {
			counts = []domain.CategoryCount{}
		}
		return r.writeJSON(counts)
	}

	if len(counts) == 0 {
		_, err := fmt.Fprintln(r.out, "No categories found")
		return err
	}
	var b strings.Builder
	for _, count := range counts {
		fmt.Fprintf(&b, "%s %s\n", r.category.Render(count.Name), r.muted.Render(fmt.Sprintf("(%d)", count.Count)))
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

// TaskCategoryList prints the categories of a single task.
func (r *Renderer) TaskCategoryList(taskID int64, categories []string) error {
	if r.json {
		if categories == nil {
			categories = []string{}
		}
		return r.writeJSON(categories)
	}
	if len(categories) == 0 {
		_, err := fmt.Fprintf(r.out, "Task #%d has no categories\n", taskID)
		return err
	}
	_, err := fmt.Fprintf(r.out, "%s %s\n", r.id.Render(fmt.Sprintf("#%d", taskID)), r.categories(categories))
	return err
}

// CategoryChange prints the result of a category operation spanning tasks.
func (r *Renderer) CategoryChange(verb string, change *services.CategoryChange) error {
	if r.json {
		return r.writeJSON(change)
	}
	ids := make([]string, len(change.TaskIDs))
	for i, id := range change.TaskIDs {
		ids[i] = fmt.Sprintf("#%d", id)
	}
	_, err := fmt.Fprintf(r.out, "%s %s on %d task(s): %s\n",
		verb, r.category.Render(change.Category), len(change.TaskIDs), strings.Join(ids, " "))
	return err
}

// Action prints an undo or redo result.
func (r *Renderer) Action(verb string, action *domain.Action) error {
	if r.json {
		return r.writeJSON(newActionView(action))
	}
	_, err := fmt.Fprintf(r.out, "%s %s %s\n", verb, r.id.Render(fmt.Sprintf("#%d", action.ID)), action.Op.Describe())
	return err
}

// History prints ledger records newest first. Undone records are marked.
func (r *Renderer) History(history *services.ActionHistory) error {
	if r.json {
		view := historyView{
			Actions:  make([]actionView, 0, len(history.Actions)),
			Undoable: history.Undoable,
			Redoable: history.Redoable,
		}
		for _, action := range history.Actions {
			view.Actions = append(view.Actions, newActionView(action))
		}
		return r.writeJSON(view)
	}

	if len(history.Actions) == 0 {
		_, err := fmt.Fprintln(r.out, "No actions recorded")
		return err
	}

	var b strings.Builder
	for _, action := range history.Actions {
		line := fmt.Sprintf("%s  %s  %s",
			r.id.Render(fmt.Sprintf("#%d", action.ID)),
			r.muted.Render(r.time(action.CreatedAt)),
			action.Op.Describe())
		if action.Restored {
			line += " " + r.muted.Render("(undone)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s\n", r.muted.Render(
		fmt.Sprintf("%d undoable, %d redoable", history.Undoable, history.Redoable)))
	_, err := io.WriteString(r.out, b.String())
	return err
}

// Raw writes pre-formatted bytes, used for configuration dumps.
func (r *Renderer) Raw(data []byte) error {
	_, err := r.out.Write(data)
	return err
}

func (r *Renderer) statusStyle(status domain.TaskStatus) lipgloss.Style {
	if style, ok := r.statuses[status]; ok {
		return style
	}
	return r.muted
}

func (r *Renderer) status(status domain.TaskStatus) string {
	return r.statusStyle(status).Render(string(status))
}

func (r *Renderer) categories(categories []string) string {
	rendered := make([]string, len(categories))
	for i, c := range categories {
		rendered[i] = r.category.Render(c)
	}
	return strings.Join(rendered, ", ")
}

func (r *Renderer) time(t time.Time) string {
	return t.Local().Format(r.timeFormat)
}
