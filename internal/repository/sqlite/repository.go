package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"

	"task-tracker/internal/errors"
	"task-tracker/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// Store owns the database handle. Reads go through the repositories returned
// by its accessors; writes that must be atomic go through WithTx.
//
// A Store holds a single connection and is not meant for concurrent callers.
type Store struct {
	db     *sql.DB
	logger log.FieldLogger
	closed bool
}

// Tx is the unit of work handed to WithTx callbacks. Every repository it
// returns shares the same transaction.
type Tx struct {
	tx         *sql.Tx
	tasks      *TaskRepository
	categories *CategoryRepository
	actions    *ActionRepository
}

// Open opens (creating if needed) the database at dsn and brings its schema
// up to date.
func Open(ctx context.Context, dsn string, logger log.FieldLogger) (*Store, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}
	// An in-memory database only lives as long as its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("enable foreign keys", err)
	}

	if err := migrations.Run(ctx, db, logger); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	logger.WithField("dsn", dsn).Debug("store opened")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Tasks returns a task repository that runs outside any transaction.
func (s *Store) Tasks() *TaskRepository {
	return &TaskRepository{ex: s.db}
}

// Categories returns a category repository that runs outside any transaction.
func (s *Store) Categories() *CategoryRepository {
	return &CategoryRepository{ex: s.db}
}

// Actions returns a ledger repository that runs outside any transaction.
func (s *Store) Actions() *ActionRepository {
	return &ActionRepository{ex: s.db}
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("begin transaction", err)
	}

	tx := &Tx{
		tx:         sqlTx,
		tasks:      &TaskRepository{ex: sqlTx},
		categories: &CategoryRepository{ex: sqlTx},
		actions:    &ActionRepository{ex: sqlTx},
	}

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.NewDatabaseError("rollback transaction",
				fmt.Errorf("%v (original error: %w)", rbErr, err))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.NewDatabaseError("commit transaction", err)
	}
	return nil
}

// Tasks returns the task repository bound to the transaction.
func (t *Tx) Tasks() *TaskRepository {
	return t.tasks
}

// Categories returns the category repository bound to the transaction.
func (t *Tx) Categories() *CategoryRepository {
	return t.categories
}

// Actions returns the ledger repository bound to the transaction.
func (t *Tx) Actions() *ActionRepository {
	return t.actions
}
