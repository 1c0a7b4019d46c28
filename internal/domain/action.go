package domain

import (
	"fmt"
	"time"
)

// ActionType is the kind of mutation a task or category record describes.
type ActionType uint8

const (
	ActionCreate ActionType = iota + 1
	ActionUpdate
	ActionDelete
)

func (t ActionType) String() string {
	switch t {
	case ActionCreate:
		return "Create"
	case ActionUpdate:
		return "Update"
	case ActionDelete:
		return "Delete"
	default:
		return fmt.Sprintf("ActionType(%d)", uint8(t))
	}
}

// OperationKind tags the variants of Operation in the encoded form.
type OperationKind uint8

const (
	KindTask OperationKind = iota + 1
	KindCategory
	KindRenameCategory
	KindBatchCategoryCreate
	KindBatchCategoryDelete
	KindBatchCategoryRename
)

func (k OperationKind) String() string {
	switch k {
	case KindTask:
		return "task"
	case KindCategory:
		return "category"
	case KindRenameCategory:
		return "rename-category"
	case KindBatchCategoryCreate:
		return "batch-category-create"
	case KindBatchCategoryDelete:
		return "batch-category-delete"
	case KindBatchCategoryRename:
		return "batch-category-rename"
	default:
		return fmt.Sprintf("OperationKind(%d)", uint8(k))
	}
}

// Operation is a mutation stored in the action ledger. The set of
// implementations is closed: only the types in this file satisfy it.
//
// A record names the mutation currently applied to the store and carries
// what is needed to reverse it.
type Operation interface {
	Kind() OperationKind
	Describe() string
	isOperation()
}

// TaskOp records a task create, update or delete. Create holds the task as
// created; Update and Delete hold the task as it was before the mutation.
type TaskOp struct {
	Type     ActionType
	Snapshot TaskDetails
}

// CategoryOp records a single assignment being added or removed.
type CategoryOp struct {
	Type     ActionType
	TaskID   int64
	Category string
}

// RenameCategoryOp records a rename on one task.
type RenameCategoryOp struct {
	TaskID int64
	From   string
	To     string
}

// BatchCategoryCreateOp records a category being assigned to a set of tasks.
type BatchCategoryCreateOp struct {
	TaskIDs  []int64
	Category string
}

// BatchCategoryDeleteOp records a category being removed from every task
// that carried it. TaskIDs is that set of tasks.
type BatchCategoryDeleteOp struct {
	TaskIDs  []int64
	Category string
}

// BatchCategoryRenameOp records a category renamed on the tasks in TaskIDs.
type BatchCategoryRenameOp struct {
	TaskIDs []int64
	From    string
	To      string
}

func (TaskOp) Kind() OperationKind                { return KindTask }
func (CategoryOp) Kind() OperationKind            { return KindCategory }
func (RenameCategoryOp) Kind() OperationKind      { return KindRenameCategory }
func (BatchCategoryCreateOp) Kind() OperationKind { return KindBatchCategoryCreate }
func (BatchCategoryDeleteOp) Kind() OperationKind { return KindBatchCategoryDelete }
func (BatchCategoryRenameOp) Kind() OperationKind { return KindBatchCategoryRename }

func (TaskOp) isOperation()                {}
func (CategoryOp) isOperation()            {}
func (RenameCategoryOp) isOperation()      {}
func (BatchCategoryCreateOp) isOperation() {}
func (BatchCategoryDeleteOp) isOperation() {}
func (BatchCategoryRenameOp) isOperation() {}

func (o TaskOp) Describe() string {
	return fmt.Sprintf("[Task] %s #%d %q", o.Type, o.Snapshot.Task.ID, o.Snapshot.Task.Title)
}

func (o CategoryOp) Describe() string {
	return fmt.Sprintf("[Category] %s %q on #%d", o.Type, o.Category, o.TaskID)
}

func (o RenameCategoryOp) Describe() string {
	return fmt.Sprintf("[Category] Rename %q to %q on #%d", o.From, o.To, o.TaskID)
}

func (o BatchCategoryCreateOp) Describe() string {
	return fmt.Sprintf("[Category] Create %q on %d task(s)", o.Category, len(o.TaskIDs))
}

func (o BatchCategoryDeleteOp) Describe() string {
	return fmt.Sprintf("[Category] Delete %q from %d task(s)", o.Category, len(o.TaskIDs))
}

func (o BatchCategoryRenameOp) Describe() string {
	return fmt.Sprintf("[Category] Rename %q to %q on %d task(s)", o.From, o.To, len(o.TaskIDs))
}

// Action is a ledger record.
type Action struct {
	ID        int64
	Op        Operation
	Restored  bool
	CreatedAt time.Time
}

func (a Action) String() string {
	return fmt.Sprintf("#%d %s", a.ID, a.Op.Describe())
}
