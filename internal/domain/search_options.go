package domain

import (
	"fmt"
	"strings"
)

// SortField names a column tasks can be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "created-at"
	SortByUpdatedAt SortField = "updated-at"
	SortByDeadline  SortField = "deadline"
	SortByTitle     SortField = "title"
)

// IsValid reports whether f is a sortable column.
func (f SortField) IsValid() bool {
	switch f {
	case SortByCreatedAt, SortByUpdatedAt, SortByDeadline, SortByTitle:
		return true
	}
	return false
}

// SortKey is one ORDER BY term. Keys compose in the order given.
type SortKey struct {
	Field      SortField
	Descending bool
}

// ParseSortKey parses "field" or "field:asc|desc".
func ParseSortKey(s string) (SortKey, error) {
	name, dir, _ := strings.Cut(strings.TrimSpace(s), ":")
	key := SortKey{Field: SortField(strings.ToLower(name))}
	if !key.Field.IsValid() {
		return SortKey{}, fmt.Errorf("unknown sort field %q", name)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		key.Descending = true
	default:
		return SortKey{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return key, nil
}

func (k SortKey) String() string {
	if k.Descending {
		return string(k.Field) + ":desc"
	}
	return string(k.Field) + ":asc"
}

// TaskQuery represents search criteria for tasks.
type TaskQuery struct {
	Status   *TaskStatus
	Category *string
	// Text is matched against the full-text index of title and info.
	Text  *string
	Sort  []SortKey
	Limit int // 0 means unlimited
}
