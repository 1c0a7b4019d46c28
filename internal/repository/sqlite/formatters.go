package sqlite

import (
	"time"

	"task-tracker/internal/domain"
)

// FormatTimeForDB formats a time.Time value as an RFC3339 UTC string with
// second precision for consistent database storage.
func FormatTimeForDB(t time.Time) string {
	return domain.NormalizeTime(t).Format(time.RFC3339)
}

// ParseTimeFromDB parses an RFC3339 formatted time string from the database
func ParseTimeFromDB(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatDatePtrForDB formats a deadline as YYYY-MM-DD, returning nil if the pointer is nil
func FormatDatePtrForDB(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(domain.DateLayout)
}

// FormatStringPtrForDB returns nil for a nil pointer so the column is stored as NULL.
func FormatStringPtrForDB(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
