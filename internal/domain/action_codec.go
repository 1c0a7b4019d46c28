package domain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// CodecVersion is the first byte of every encoded operation.
const CodecVersion byte = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported operation encoding version")
	ErrUnknownKind        = errors.New("unknown operation kind")
	ErrTruncated          = errors.New("truncated operation payload")
	ErrTrailingBytes      = errors.New("trailing bytes after operation payload")
)

// EncodeOperation serialises op as
//
//	[version][kind][payload]
//
// Integers are zig-zag varints, lengths are uvarints, optional values are
// prefixed with a presence byte and times are unix seconds.
func EncodeOperation(op Operation) ([]byte, error) {
	if op == nil {
		return nil, errors.New("cannot encode nil operation")
	}
	e := &encoder{buf: make([]byte, 0, 64)}
	e.byte(CodecVersion)
	e.byte(byte(op.Kind()))

	switch o := op.(type) {
	case TaskOp:
		if err := e.actionType(o.Type, ActionCreate, ActionUpdate, ActionDelete); err != nil {
			return nil, err
		}
		e.task(o.Snapshot.Task)
		e.strings(o.Snapshot.Categories)
	case CategoryOp:
		if err := e.actionType(o.Type, ActionCreate, ActionDelete); err != nil {
			return nil, err
		}
		e.varint(o.TaskID)
		e.string(o.Category)
	case RenameCategoryOp:
		e.varint(o.TaskID)
		e.string(o.From)
		e.string(o.To)
	case BatchCategoryCreateOp:
		e.ids(o.TaskIDs)
		e.string(o.Category)
	case BatchCategoryDeleteOp:
		e.ids(o.TaskIDs)
		e.string(o.Category)
	case BatchCategoryRenameOp:
		e.ids(o.TaskIDs)
		e.string(o.From)
		e.string(o.To)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, op)
	}
	return e.buf, nil
}

// DecodeOperation is the inverse of EncodeOperation. It never returns a
// partially decoded operation.
func DecodeOperation(data []byte) (Operation, error) {
	d := &decoder{buf: data}

	version, err := d.byte()
	if err != nil {
		return nil, err
	}
	if version != CodecVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	kind, err := d.byte()
	if err != nil {
		return nil, err
	}

	var op Operation
	switch OperationKind(kind) {
	case KindTask:
		op, err = d.taskOp()
	case KindCategory:
		op, err = d.categoryOp()
	case KindRenameCategory:
		var o RenameCategoryOp
		if o.TaskID, err = d.varint(); err == nil {
			if o.From, err = d.string(); err == nil {
				o.To, err = d.string()
			}
		}
		op = o
	case KindBatchCategoryCreate:
		var o BatchCategoryCreateOp
		if o.TaskIDs, err = d.ids(); err == nil {
			o.Category, err = d.string()
		}
		op = o
	case KindBatchCategoryDelete:
		var o BatchCategoryDeleteOp
		if o.TaskIDs, err = d.ids(); err == nil {
			o.Category, err = d.string()
		}
		op = o
	case KindBatchCategoryRename:
		var o BatchCategoryRenameOp
		if o.TaskIDs, err = d.ids(); err == nil {
			if o.From, err = d.string(); err == nil {
				o.To, err = d.string()
			}
		}
		op = o
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.buf) {
		return nil, fmt.Errorf("%w: %d byte(s)", ErrTrailingBytes, len(d.buf)-d.pos)
	}
	return op, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) byte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *encoder) varint(v int64) {
	e.buf = binary.AppendVarint(e.buf, v)
}

func (e *encoder) uvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *encoder) string(s string) {
	e.uvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) optionalString(s *string) {
	if s == nil {
		e.byte(0)
		return
	}
	e.byte(1)
	e.string(*s)
}

func (e *encoder) time(t time.Time) {
	e.varint(t.Unix())
}

func (e *encoder) optionalTime(t *time.Time) {
	if t == nil {
		e.byte(0)
		return
	}
	e.byte(1)
	e.time(*t)
}

func (e *encoder) strings(values []string) {
	e.uvarint(uint64(len(values)))
	for _, v := range values {
		e.string(v)
	}
}

func (e *encoder) ids(values []int64) {
	e.uvarint(uint64(len(values)))
	for _, v := range values {
		e.varint(v)
	}
}

func (e *encoder) actionType(t ActionType, allowed ...ActionType) error {
	for _, a := range allowed {
		if t == a {
			e.byte(byte(t))
			return nil
		}
	}
	return fmt.Errorf("action type %s is not valid here", t)
}

func (e *encoder) task(t Task) {
	e.varint(t.ID)
	e.string(t.Title)
	e.optionalString(t.Info)
	e.optionalTime(t.Deadline)
	e.string(string(t.Status))
	e.time(t.CreatedAt)
	e.time(t.UpdatedAt)
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.pos
}

func (d *decoder) byte() (byte, error) {
	if d.remaining() < 1 {
		return 0, ErrTruncated
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) varint() (int64, error) {
	v, n := binary.Varint(d.buf[d.pos:])
	if n <= 0 {
		return 0, ErrTruncated
	}
	d.pos += n
	return v, nil
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	if n <= 0 {
		return 0, ErrTruncated
	}
	d.pos += n
	return v, nil
}

// length reads a count and checks it against the bytes left, each element
// occupying at least minSize bytes.
func (d *decoder) length(minSize int) (int, error) {
	n, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.remaining()/minSize) {
		return 0, ErrTruncated
	}
	return int(n), nil
}

func (d *decoder) string() (string, error) {
	n, err := d.length(1)
	if err != nil {
		return "", err
	}
	s := string(d.buf[d.pos : d.pos+n])
	d.pos += n
	return s, nil
}

func (d *decoder) present() (bool, error) {
	b, err := d.byte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid presence marker %d", b)
	}
}

func (d *decoder) optionalString() (*string, error) {
	ok, err := d.present()
	if err != nil || !ok {
		return nil, err
	}
	s, err := d.string()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *decoder) time() (time.Time, error) {
	v, err := d.varint()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}

func (d *decoder) optionalTime() (*time.Time, error) {
	ok, err := d.present()
	if err != nil || !ok {
		return nil, err
	}
	t, err := d.time()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (d *decoder) strings() ([]string, error) {
	n, err := d.length(1)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := d.string()
		if err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return values, nil
}

func (d *decoder) ids() ([]int64, error) {
	n, err := d.length(1)
	if err != nil {
		return nil, err
	}
	values := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.varint()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (d *decoder) actionType(allowed ...ActionType) (ActionType, error) {
	b, err := d.byte()
	if err != nil {
		return 0, err
	}
	for _, a := range allowed {
		if ActionType(b) == a {
			return a, nil
		}
	}
	return 0, fmt.Errorf("invalid action type %d", b)
}

func (d *decoder) task() (Task, error) {
	var t Task
	var err error
	if t.ID, err = d.varint(); err != nil {
		return t, err
	}
	if t.Title, err = d.string(); err != nil {
		return t, err
	}
	if t.Info, err = d.optionalString(); err != nil {
		return t, err
	}
	if t.Deadline, err = d.optionalTime(); err != nil {
		return t, err
	}
	status, err := d.string()
	if err != nil {
		return t, err
	}
	t.Status = TaskStatus(status)
	if !t.Status.IsValid() {
		return t, fmt.Errorf("invalid task status %q", status)
	}
	if t.CreatedAt, err = d.time(); err != nil {
		return t, err
	}
	if t.UpdatedAt, err = d.time(); err != nil {
		return t, err
	}
	return t, nil
}

func (d *decoder) taskOp() (Operation, error) {
	actionType, err := d.actionType(ActionCreate, ActionUpdate, ActionDelete)
	if err != nil {
		return nil, err
	}
	task, err := d.task()
	if err != nil {
		return nil, err
	}
	categories, err := d.strings()
	if err != nil {
		return nil, err
	}
	return TaskOp{Type: actionType, Snapshot: TaskDetails{Task: task, Categories: categories}}, nil
}

func (d *decoder) categoryOp() (Operation, error) {
	actionType, err := d.actionType(ActionCreate, ActionDelete)
	if err != nil {
		return nil, err
	}
	taskID, err := d.varint()
	if err != nil {
		return nil, err
	}
	category, err := d.string()
	if err != nil {
		return nil, err
	}
	return CategoryOp{Type: actionType, TaskID: taskID, Category: category}, nil
}
