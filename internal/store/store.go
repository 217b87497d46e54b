package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by getters and updates when no row matches.
var ErrNotFound = errors.New("not found")

// SchemaVersion is recorded in the metadata table after migration.
const SchemaVersion = "1"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.SetMetadata(context.Background(), "schema_version", SchemaVersion); err != nil {
		return nil, fmt.Errorf("record schema version: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'learner',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		purpose TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_courses_owner ON courses(owner_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_courses_status ON courses(status, updated_at);

	CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL,
		job_role TEXT NOT NULL,
		tech_stack TEXT NOT NULL,
		experience TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interviews_owner ON interviews(owner_id, created_at);

	CREATE TABLE IF NOT EXISTS interview_questions (
		id TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL,
		question TEXT NOT NULL,
		user_answer TEXT,
		order_number INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (interview_id) REFERENCES interviews(id)
	);
	CREATE INDEX IF NOT EXISTS idx_questions_interview ON interview_questions(interview_id, order_number);

	CREATE TABLE IF NOT EXISTS interview_analysis (
		id TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL UNIQUE,
		overall_rating INTEGER NOT NULL DEFAULT 0,
		answers TEXT NOT NULL,
		recommendations TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (interview_id) REFERENCES interviews(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps anything else.
func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectOne returns ErrNotFound when an update touched no row.
func expectOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
