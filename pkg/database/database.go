package database

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLDatabase is the relational store behind the repositories
type SQLDatabase interface {
	SQL() *sql.DB
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ SQLDatabase = (*Postgres)(nil)
	_ SQLDatabase = (*SQLite)(nil)
)

// Open connects to the store selected by driver ("postgres" or "sqlite").
// dsn is a PostgreSQL connection string or a sqlite file path.
func Open(driver, dsn string) (SQLDatabase, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgres(dsn)
	case DriverSQLite:
		return NewSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
