// Package sqlitestore is the embedded store backend built on modernc.org/sqlite.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"collab-go/app/errs"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Store implements store.Store on a single SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and applies the schema.
func New(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlitestore: create data dir: %w", err)
		}
	}

	q := url.Values{}
	for _, p := range []string{"foreign_keys(1)", "busy_timeout(5000)", "journal_mode(WAL)", "synchronous(NORMAL)"} {
		q.Add("_pragma", p)
	}
	db, err := openDB("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open database: %w", err)
	}
	// One writer at a time; transactions queue on the pool instead of
	// failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// Migrate creates every table and index if missing.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_by  TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS project_members (
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			seq        INTEGER NOT NULL,
			PRIMARY KEY (project_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_project_members_user ON project_members(user_id);

		CREATE TABLE IF NOT EXISTS project_notes (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			seq        INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_project_notes_project ON project_notes(project_id, seq);

		CREATE TABLE IF NOT EXISTS direct_messages (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			sender_id   TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			content     TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_dm_sender ON direct_messages(sender_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_dm_receiver ON direct_messages(receiver_id, created_at);

		CREATE TABLE IF NOT EXISTS tasks (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			status     TEXT NOT NULL,
			owner      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			revision   INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner, created_at);

		CREATE TABLE IF NOT EXISTS task_messages (
			task_id   TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			position  INTEGER NOT NULL,
			id        TEXT NOT NULL,
			text      TEXT NOT NULL,
			sender    TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			parent_id TEXT,
			parent    INTEGER NOT NULL,
			depth     INTEGER NOT NULL,
			PRIMARY KEY (task_id, position)
		);

		CREATE TABLE IF NOT EXISTS task_mentions (
			task_id  TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			username TEXT NOT NULL,
			PRIMARY KEY (task_id, username)
		);
		CREATE INDEX IF NOT EXISTS idx_task_mentions_username ON task_mentions(username);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlitestore: migrate: %w", err)
	}
	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitestore: commit: %w", err)
	}
	return nil
}

func newID() string {
	return uuid.New().String()
}

// timeLayout is fixed width, so stored instants sort as text and keep every
// year RFC 3339 can express.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func toText(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timeText scans a column written by toText.
type timeText struct{ t *time.Time }

func (tt timeText) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("sqlitestore: cannot scan %T into time", src)
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return fmt.Errorf("sqlitestore: bad stored time %q: %w", s, err)
	}
	*tt.t = t
	return nil
}

// isUniqueViolation checks if an error is a SQLite UNIQUE or PRIMARY KEY violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
