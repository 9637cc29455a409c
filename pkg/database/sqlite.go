package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite is a single-file database used when no PostgreSQL server is deployed
type SQLite struct {
	DB   *sql.DB
	path string
}

// NewSQLite opens (creating if needed) the database file at path
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite serialises writers; one connection avoids SQLITE_BUSY under concurrent refreshes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLite{DB: db, path: path}, nil
}

// SQLiteDSN builds the modernc connection string with WAL and a busy timeout
func SQLiteDSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// SQL returns the underlying connection pool
func (s *SQLite) SQL() *sql.DB {
	return s.DB
}

// Path returns the database file path
func (s *SQLite) Path() string {
	return s.path
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.DB.Close()
}

// Ping checks if the database is available
func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
