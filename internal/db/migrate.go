package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// NewMigrator builds a migrator over the embedded migrations for d's dialect.
// Closing the returned migrator also closes d.
func NewMigrator(d *DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+string(d.Dialect))
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}

	var driver database.Driver
	switch d.Dialect {
	case Postgres:
		driver, err = migratepg.WithInstance(d.DB, &migratepg.Config{})
	case SQLite:
		driver, err = migratesqlite.WithInstance(d.DB, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported dialect %q", d.Dialect)
	}
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("init migration driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", src, string(d.Dialect), driver)
}

// MigrateUp applies all pending migrations. It leaves d open.
func MigrateUp(d *DB) error {
	migrator, err := NewMigrator(d)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}
