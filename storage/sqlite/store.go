// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package sqlite implements storage.Store over a SQLite database using the
// pure-Go modernc.org/sqlite driver. The database runs in WAL mode with
// NORMAL synchronous writes; a store-level mutex serializes writers while
// reads proceed concurrently.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/poiesic/enrichit/storage"
)

// Store implements storage.Store over a SQLite database file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// writeMu serializes writers. SQLite allows one writer at a time;
	// funneling them here turns driver-level SQLITE_BUSY churn into
	// ordinary queueing while reads proceed concurrently.
	writeMu sync.Mutex

	closed bool
	mu     sync.RWMutex
}

// Option configures a Store during construction.
type Option func(*Store) error

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// New opens (creating if necessary) the SQLite database at path and
// prepares the audit trail tables.
func New(path string, opts ...Option) (storage.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	store := &Store{
		db:     db,
		logger: slog.Default().With("component", "sqlite"),
	}
	for _, opt := range opts {
		if err := opt(store); err != nil {
			db.Close()
			return nil, err
		}
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if err := store.ensureAuditTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	store.logger.Debug("opened database", "path", path)
	return store, nil
}

// Close closes the underlying database. Further calls on the store return
// ErrStorageClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	return nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent validates and quotes a table or column name. Names come from
// user config, so anything fancier than a plain identifier is rejected
// instead of interpolated.
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidIdentifier, name)
	}
	return `"` + name + `"`, nil
}

// tableExists consults sqlite_master for a table by name.
func (s *Store) tableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// tableColumns returns the column names of a table via PRAGMA table_info.
func (s *Store) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	quoted, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}
