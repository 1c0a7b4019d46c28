package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

//go:embed *.sql
var migrationsFS embed.FS

// GoMigrationFunc is a migration step written in Go. It runs inside the
// migration's transaction.
type GoMigrationFunc func(tx *sql.Tx) error

// Migration represents a database migration. Exactly one of Up or UpFunc is set.
type Migration struct {
	Version  int
	Name     string
	Up       string
	Down     string
	UpFunc   GoMigrationFunc
	DownFunc GoMigrationFunc
}

var goMigrations = map[int]Migration{}

// RegisterGoMigration adds a Go migration to the set applied by RunMigrations.
// It is meant to be called from init functions.
func RegisterGoMigration(version int, name string, up, down GoMigrationFunc) {
	if _, exists := goMigrations[version]; exists {
		panic(fmt.Sprintf("migration %d registered twice", version))
	}
	goMigrations[version] = Migration{Version: version, Name: name, UpFunc: up, DownFunc: down}
}

// Run executes all pending migrations in version order. Each migration is
// flagged dirty before it starts and cleared when its transaction commits;
// a database left dirty by a failed migration refuses further migrations.
func Run(ctx context.Context, db *sql.DB, logger log.FieldLogger) error {
	if err := createMigrationsTable(ctx, db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	dirty, err := getDirtyMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to check migration state: %w", err)
	}
	if len(dirty) > 0 {
		return fmt.Errorf("database is in a dirty state, failed migration(s): %v", dirty)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := getAppliedMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if err := applyMigration(ctx, db, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		logger.WithFields(log.Fields{
			"version": migration.Version,
			"name":    migration.Name,
		}).Debug("applied migration")
	}

	return nil
}

// RollbackLast reverts the most recently applied migration and returns its
// version, or 0 when nothing has been applied.
func RollbackLast(ctx context.Context, db *sql.DB, logger log.FieldLogger) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM migrations WHERE dirty = FALSE").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest migration: %w", err)
	}
	if version == 0 {
		return 0, nil
	}

	migrations, err := loadMigrations()
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}
	var target *Migration
	for i := range migrations {
		if migrations[i].Version == version {
			target = &migrations[i]
			break
		}
	}
	if target == nil {
		return 0, fmt.Errorf("migration %d is applied but unknown to this build", version)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if target.DownFunc != nil {
		err = target.DownFunc(tx)
	} else {
		_, err = tx.ExecContext(ctx, target.Down)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to revert migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM migrations WHERE version = ?", version); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	logger.WithField("version", version).Debug("reverted migration")
	return version, nil
}

func createMigrationsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		dirty BOOLEAN DEFAULT FALSE
	)`
	_, err := db.ExecContext(ctx, query)
	return err
}

func loadMigrations() ([]Migration, error) {
	entries, err := migrationsFS.ReadDir(".")
	if err != nil {
		return nil, err
	}

	byVersion := make(map[int]Migration, len(entries)/2+len(goMigrations))
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		version := extractVersion(entry.Name())
		if version == 0 {
			continue
		}

		upSQL, err := migrationsFS.ReadFile(entry.Name())
		if err != nil {
			return nil, err
		}

		downFile := strings.Replace(entry.Name(), ".up.sql", ".down.sql", 1)
		downSQL, err := migrationsFS.ReadFile(downFile)
		if err != nil {
			return nil, err
		}

		byVersion[version] = Migration{
			Version: version,
			Name:    extractName(entry.Name()),
			Up:      string(upSQL),
			Down:    string(downSQL),
		}
	}

	for version, m := range goMigrations {
		if _, exists := byVersion[version]; exists {
			return nil, fmt.Errorf("migration %d defined both in SQL and in Go", version)
		}
		byVersion[version] = m
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		migrations = append(migrations, m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func getAppliedMigrations(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func getDirtyMigrations(ctx context.Context, db *sql.DB) ([]int, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM migrations WHERE dirty = TRUE ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dirty []int
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		dirty = append(dirty, version)
	}
	return dirty, rows.Err()
}

func applyMigration(ctx context.Context, db *sql.DB, migration Migration) error {
	if _, err := db.ExecContext(ctx, "INSERT INTO migrations (version, dirty) VALUES (?, TRUE)", migration.Version); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if migration.UpFunc != nil {
		err = migration.UpFunc(tx)
	} else {
		_, err = tx.ExecContext(ctx, migration.Up)
	}
	if err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE migrations SET dirty = FALSE, applied_at = CURRENT_TIMESTAMP WHERE version = ?", migration.Version); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func extractVersion(filename string) int {
	var version int
	fmt.Sscanf(filename, "%d_", &version)
	return version
}

func extractName(filename string) string {
	name := strings.TrimSuffix(filename, ".up.sql")
	if _, rest, ok := strings.Cut(name, "_"); ok {
		return rest
	}
	return name
}
