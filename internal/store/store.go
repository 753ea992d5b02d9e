package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 2

// ErrNotFound is wrapped by every lookup that matches no row.
var ErrNotFound = errors.New("not found")

type Store struct {
	db    *sql.DB
	feed  *changeFeed
	clock func() time.Time
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, feed: newChangeFeed(), clock: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	s.feed.close()
	return s.db.Close()
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS tasks (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		start_date      TEXT NOT NULL,
		due_date        TEXT NOT NULL,
		priority        INTEGER NOT NULL DEFAULT 1 CHECK (priority BETWEEN 1 AND 3),
		status          TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_progress', 'completed')),
		estimated_hours REAL NOT NULL DEFAULT 0 CHECK (estimated_hours >= 0),
		actual_hours    REAL NOT NULL DEFAULT 0 CHECK (actual_hours >= 0),
		progress        INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
		ai_generated    INTEGER NOT NULL DEFAULT 0,
		parent_task_id  INTEGER REFERENCES tasks(id) ON DELETE SET NULL,
		created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_due    ON tasks(due_date);

	CREATE TABLE IF NOT EXISTS subtasks (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		parent_task_id  INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		scheduled_date  TEXT NOT NULL,
		estimated_hours REAL NOT NULL DEFAULT 0 CHECK (estimated_hours >= 0),
		actual_hours    REAL NOT NULL DEFAULT 0 CHECK (actual_hours >= 0),
		completed       INTEGER NOT NULL DEFAULT 0,
		completed_at    TEXT,
		generation_id   TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_subtasks_parent ON subtasks(parent_task_id);

	CREATE TABLE IF NOT EXISTS time_logs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		start_time  TEXT NOT NULL,
		end_time    TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_time_logs_task  ON time_logs(task_id);
	CREATE INDEX IF NOT EXISTS idx_time_logs_start ON time_logs(start_time);

	CREATE TABLE IF NOT EXISTS api_config (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		base_url    TEXT NOT NULL,
		api_key     TEXT NOT NULL DEFAULT '',
		model       TEXT NOT NULL,
		max_tokens  INTEGER NOT NULL,
		temperature REAL NOT NULL,
		configured  INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	INSERT OR IGNORE INTO api_config (id, base_url, api_key, model, max_tokens, temperature, configured)
	VALUES (1, 'https://api.openai.com/v1/', '', 'gpt-3.5-turbo', 2000, 0.7, 0);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('default_days_available', '7'),
		('default_hours_per_day',  '2'),
		('score_good',             '60'),
		('score_excellent',        '80');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// legacyTimeColumns were written as whole-second RFC 3339 before version 2.
var legacyTimeColumns = map[string][]string{
	"tasks":      {"start_date", "due_date", "created_at", "updated_at"},
	"subtasks":   {"scheduled_date", "completed_at", "created_at"},
	"time_logs":  {"start_time", "end_time", "created_at"},
	"api_config": {"created_at", "updated_at"},
}

// migrateV2 widens stored timestamps to nanoseconds and records when a task
// was completed so later edits do not move it.
func (s *Store) migrateV2() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("migrate v2: %w", err)
	}
	defer tx.Rollback()

	for table, cols := range legacyTimeColumns {
		for _, col := range cols {
			q := fmt.Sprintf(
				`UPDATE %[1]s SET %[2]s = substr(%[2]s, 1, 19) || '.000000000Z' WHERE length(%[2]s) = 20`,
				table, col,
			)
			if _, err := tx.Exec(q); err != nil {
				return fmt.Errorf("migrate v2 %s.%s: %w", table, col, err)
			}
		}
	}

	const ddl = `
	ALTER TABLE tasks ADD COLUMN completed_at TEXT;
	UPDATE tasks SET completed_at = updated_at WHERE status = 'completed';
	`
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("migrate v2: %w", err)
	}
	return tx.Commit()
}

// DefaultDBPath returns ~/.config/focusplan/focusplan.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "focusplan", "focusplan.db"), nil
}

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime also accepts rows written with whole-second RFC 3339.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// notFound converts sql.ErrNoRows into ErrNotFound, leaving other errors alone.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// mustAffect reports ErrNotFound when an UPDATE/DELETE matched nothing.
func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
