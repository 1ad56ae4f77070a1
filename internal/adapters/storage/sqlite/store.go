// Package sqlite is the single-file persistent domain.Store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/ids"
)

// tsLayout is fixed width so stored timestamps compare correctly as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements domain.Store on top of SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ domain.Store = (*Store)(nil)

// Open opens or creates the database at path and migrates its schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer at a time keeps SQLITE_BUSY out of the request path
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// SetClock overrides the time source used for CreatedAt fields.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID(at time.Time) string {
	return ids.NewAt(at)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id                TEXT PRIMARY KEY,
		category_key      TEXT NOT NULL UNIQUE,
		title             TEXT NOT NULL,
		last_message      TEXT NOT NULL DEFAULT '',
		last_message_at   TEXT NOT NULL,
		pinned            INTEGER NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL,
		pending           TEXT NOT NULL DEFAULT '',
		pending_statement TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		sender          TEXT NOT NULL,
		text            TEXT NOT NULL,
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		summary     TEXT NOT NULL,
		search_text TEXT NOT NULL,
		category    TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);

	CREATE TABLE IF NOT EXISTS reminders (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		text            TEXT NOT NULL,
		trigger_at      TEXT NOT NULL,
		processed       INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(processed, trigger_at);

	CREATE TABLE IF NOT EXISTS app_state (
		id                             INTEGER PRIMARY KEY CHECK (id = 1),
		last_proactive_message_at      TEXT,
		last_proactive_interval_hours  REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(tsLayout, raw)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

// execer is either the database or an open transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
