package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is the durable ledger of one scanning station.
//
// SQLite allows a single writer, and the Station already serialises every
// commit, so the pool is capped at one connection.
type Store struct {
	db      *sql.DB
	station string
}

// Option configures a Store.
type Option func(*Store)

// WithStation names the station stamped on every session the store opens.
func WithStation(name string) Option {
	return func(s *Store) {
		s.station = strings.TrimSpace(name)
	}
}

// connParams are applied by go-sqlite3 to every new connection.
var connParams = map[string]string{
	"_journal_mode": "WAL",
	"_synchronous":  "NORMAL",
	"_busy_timeout": "5000",
	"_foreign_keys": "on",
}

// dsn appends connParams to path. ":memory:" is accepted as is.
func dsn(path string) string {
	q := url.Values{}
	for k, v := range connParams {
		q.Set(k, v)
	}
	return path + "?" + q.Encode()
}

// Open creates or opens the ledger database at path and brings its schema
// up to date. Opening an existing ledger is safe and changes nothing but
// pending migrations.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database. Safe on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Station returns the station name stamped on new sessions.
func (s *Store) Station() string {
	return s.station
}

// migration upgrades the schema to version. Each one runs in its own
// transaction together with the user_version bump, and must be a no-op
// on a database created from the current schema.sql.
type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

var migrations = []migration{
	{1, "per-stage stats index", func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			CREATE INDEX IF NOT EXISTS idx_scan_records_stage_status
			ON scan_records(session_id, stage_id, status)
		`)
		return err
	}},
	{2, "station name on sessions", func(tx *sql.Tx) error {
		ok, err := hasColumn(tx, "sessions", "station")
		if err != nil || ok {
			return err
		}
		_, err = tx.Exec(`ALTER TABLE sessions ADD COLUMN station TEXT NOT NULL DEFAULT ''`)
		return err
	}},
}

// schemaVersion is the user_version of a fully migrated ledger.
var schemaVersion = migrations[len(migrations)-1].version

func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() // No-op if committed

	if err := m.apply(tx); err != nil {
		return err
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

func hasColumn(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
