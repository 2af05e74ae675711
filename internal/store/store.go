package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a journal written by an older schemarepl.
type migration struct {
	version int
	name    string
	stmts   []string
}

// journalMigrations lists every change made to the journal after the tables
// in schema.sql. Versions are consecutive, starting at 1. A journal's
// PRAGMA user_version is the last migration applied to it.
var journalMigrations = []migration{
	{
		version: 1,
		name:    "index queries by error code",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_queries_error_code ON queries(error_code)`,
		},
	},
	{
		version: 2,
		name:    "index query status per session",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_queries_session_status ON queries(session_id, status)`,
		},
	},
}

// SchemaVersion is the journal version this build writes.
var SchemaVersion = journalMigrations[len(journalMigrations)-1].version

// Store is a query journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens a journal at path. ":memory:" opens a private
// in-memory journal that disappears on Close.
//
// A journal written by an older build is migrated in place; one written by a
// newer build is refused rather than guessed at.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// One connection: an in-memory journal lives inside it, and every
	// session appends from a single goroutine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal tables: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// dsn passes the journal's pragmas as go-sqlite3 connection parameters, so
// they hold for every connection the driver opens:
//   - WAL journal: `schemarepl journal` can read while a session appends
//   - synchronous=NORMAL: a crash may lose the last queries, never corrupt
//   - busy_timeout=5000: wait for a concurrent writer up to 5 seconds
//   - foreign_keys=on: queries must belong to a session
func dsn(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	return "file:" + path + "?" + params.Encode()
}

// migrate applies the pending journal migrations, each in its own
// transaction together with its user_version bump.
func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read journal version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("journal version %d is newer than supported version %d", version, SchemaVersion)
	}

	for _, m := range journalMigrations {
		if m.version <= version {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migrate journal to v%d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	// PRAGMA does not take bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the journal.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Query runs a read-only query against the journal tables. Callers close the
// returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}
