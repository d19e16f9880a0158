// Package store is the relational storage layer for workspace resources,
// their sync fingerprints and per-workspace settings.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("not found")

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps a sqlx handle. All queries use "?" placeholders and are rebound
// for the connected driver.
type Store struct {
	db  *sqlx.DB
	now func() time.Time

	mu        sync.RWMutex
	listeners map[int]func(ModelChange)
	nextID    int
}

// New initializes the schema on db and returns a Store.
func New(db *sqlx.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("store requires a database")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{
		db:        db,
		now:       time.Now,
		listeners: make(map[int]func(ModelChange)),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		slog.Error("store close", "error", err)
		return err
	}
	return nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

// withTx runs fn in a transaction, committing on success and rolling back on error.
func (s *Store) withTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("store rollback", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
