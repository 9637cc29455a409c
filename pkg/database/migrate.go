package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/prperemyshlev/outreach-service/migrations"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Migrate applies the embedded schema for driver. A negative steps value rolls back
// that many migrations, zero applies everything pending.
// The migrator opens its own connection so closing it never touches the service pool.
func Migrate(driver, dsn string, steps int) error {
	m, err := newMigrator(driver, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// MigrationVersion reports the current schema version
func MigrationVersion(driver, dsn string) (uint, bool, error) {
	m, err := newMigrator(driver, dsn)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrator(driver, dsn string) (*migrate.Migrate, error) {
	sub, err := fs.Sub(migrations.FS, driver)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %q: %w", driver, err)
	}

	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	var (
		db       *sql.DB
		instance migratedb.Driver
	)

	switch driver {
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			instance, err = postgres.WithInstance(db, &postgres.Config{})
		}
	case DriverSQLite:
		db, err = sql.Open("sqlite", SQLiteDSN(dsn))
		if err == nil {
			instance, err = sqlite.WithInstance(db, &sqlite.Config{})
		}
	default:
		err = fmt.Errorf("unsupported database driver %q", driver)
	}

	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		_ = src.Close()
		return nil, fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, instance)
	if err != nil {
		_ = instance.Close()
		_ = src.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}
