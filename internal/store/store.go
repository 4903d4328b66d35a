package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// pragma is a connection setting applied on Open. want is what reading the
// pragma back returns once it is in effect.
type pragma struct {
	name, value, want string
	fileOnly          bool // in-memory databases keep journal_mode=memory
}

var pragmas = []pragma{
	{name: "journal_mode", value: "WAL", want: "wal", fileOnly: true},
	{name: "synchronous", value: "NORMAL", want: "1"},
	{name: "busy_timeout", value: "5000", want: "5000"},
	{name: "foreign_keys", value: "ON", want: "1"},
}

// migrations[i] upgrades a library at user_version i to i+1. Databases
// created from the current schema.sql already have every change, so each
// step must be idempotent.
var migrations = []func(*sql.DB) error{
	// v1: name index for library listings by name.
	func(db *sql.DB) error {
		_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_operations_name ON operations(name, seq)`)
		return err
	},
}

// schemaVersion is the user_version of a fully migrated library.
var schemaVersion = len(migrations)

// Store holds the operation library and the harness check log.
type Store struct {
	db     *sql.DB
	memory bool
}

// Open creates or opens the library at path; MemoryPath keeps it in memory
// for the lifetime of the Store. Opening an existing library applies any
// pending migrations, so Open is safe to call repeatedly on one file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}
	// One connection: SQLite has a single writer, and an in-memory
	// database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, memory: path == MemoryPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range pragmas {
		if p.fileOnly && s.memory {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return s.migrate()
}

// migrate runs the migrations above the library's user_version.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for v := version; v < schemaVersion; v++ {
		if err := migrations[v](s.db); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	if version >= schemaVersion {
		return nil
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// checkPragmas reports the first pragma that is not in effect.
func (s *Store) checkPragmas() error {
	for _, p := range pragmas {
		if p.fileOnly && s.memory {
			continue
		}
		var got string
		if err := s.db.QueryRow("PRAGMA " + p.name).Scan(&got); err != nil {
			return fmt.Errorf("read %s: %w", p.name, err)
		}
		if got != p.want {
			return fmt.Errorf("%s = %q, want %q", p.name, got, p.want)
		}
	}
	return nil
}
