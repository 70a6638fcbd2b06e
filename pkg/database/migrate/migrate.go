// Package migrate manages the audit log schema with golang-migrate.
package migrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrator is the subset of *migrate.Migrate used here.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
}

// open builds a migrator for db. Tests replace it.
var open = func(db *sql.DB) (migrator, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}
	drv, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("binding postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// apply opens a migrator and runs op, treating ErrNoChange as success.
func apply(db *sql.DB, what string, op func(migrator) error) (migrator, error) {
	m, err := open(db)
	if err != nil {
		return nil, err
	}
	if err := op(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return m, nil
}

// Run applies every pending migration. Applied ones are skipped.
func Run(db *sql.DB) error {
	m, err := apply(db, "applying migrations", migrator.Up)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		slog.Info("audit schema has no migrations applied")
	case err != nil:
		return fmt.Errorf("reading schema version: %w", err)
	case dirty:
		slog.Warn("audit schema is dirty", "version", version)
	default:
		slog.Info("audit schema up to date", "version", version)
	}
	return nil
}

// Version reports the applied schema version and whether it is dirty.
func Version(db *sql.DB) (uint, bool, error) {
	m, err := open(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, false, fmt.Errorf("reading schema version: %w", err)
	}
	return version, dirty, nil
}

// Down reverts every migration, dropping the audit log.
func Down(db *sql.DB) error {
	_, err := apply(db, "reverting migrations", migrator.Down)
	return err
}

// Steps moves n migrations forward, or backward when n is negative.
func Steps(db *sql.DB, n int) error {
	_, err := apply(db, fmt.Sprintf("stepping %d migrations", n), func(m migrator) error {
		return m.Steps(n)
	})
	return err
}
