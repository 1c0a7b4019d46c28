package migrations

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

func init() {
	RegisterGoMigration(5, "normalize_timestamps", upNormalizeTimestamps, downNormalizeTimestamps)
}

// timestampColumns lists the columns holding instants. Deadlines are dates
// and are left alone.
var timestampColumns = []struct {
	table  string
	column string
}{
	{"tasks", "created_at"},
	{"tasks", "updated_at"},
	{"actions", "created_at"},
}

// upNormalizeTimestamps rewrites timestamps stored by older builds (plain
// dates, space separated times, Go's default time.String output) as RFC3339
// in UTC with second precision.
func upNormalizeTimestamps(tx *sql.Tx) error {
	for _, c := range timestampColumns {
		if err := normalizeColumn(tx, c.table, c.column); err != nil {
			return err
		}
	}
	return nil
}

// downNormalizeTimestamps turns RFC3339 values back into the basic
// "YYYY-MM-DD HH:MM:SS" layout.
func downNormalizeTimestamps(tx *sql.Tx) error {
	for _, c := range timestampColumns {
		query := fmt.Sprintf(`
			UPDATE %[1]s
			SET %[2]s = substr(%[2]s, 1, 10) || ' ' || substr(%[2]s, 12, 8)
			WHERE %[2]s GLOB '????-??-??T??:??:??*'`, c.table, c.column)
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to revert %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}

func normalizeColumn(tx *sql.Tx, table, column string) error {
	type row struct {
		id    int64
		value string
	}

	// Read everything first; updating while iterating would need a second connection.
	rows, err := tx.Query(fmt.Sprintf("SELECT id, %s FROM %s", column, table))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	var pending []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.value); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		normalized, err := normalizeTimestamp(r.value)
		if err != nil {
			rows.Close()
			return fmt.Errorf("%s.%s of row %d: %w", table, column, r.id, err)
		}
		if normalized != r.value {
			pending = append(pending, row{id: r.id, value: normalized})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating %s: %w", table, err)
	}
	rows.Close()

	if len(pending) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?", table, column))
	if err != nil {
		return fmt.Errorf("failed to prepare %s update: %w", table, err)
	}
	defer stmt.Close()

	for _, r := range pending {
		if _, err := stmt.Exec(r.value, r.id); err != nil {
			return fmt.Errorf("failed to update %s row %d: %w", table, r.id, err)
		}
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalizeTimestamp parses the layouts older builds wrote and returns the
// canonical RFC3339 UTC form.
func normalizeTimestamp(value string) (string, error) {
	if idx := strings.Index(value, " m="); idx != -1 {
		value = value[:idx]
	}
	value = strings.TrimSpace(value)

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Truncate(time.Second).Format(time.RFC3339), nil
		}
	}
	return "", fmt.Errorf("could not parse time format: %q", value)
}
