package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // PostgreSQL driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // File source driver
)

// RunMigrations applies every pending up migration found under migrationsPath.
// The path may be given bare or as a file:// URL.
func RunMigrations(databaseURL string, migrationsPath string) error {
	if migrationsPath == "" {
		return errors.New("migrations path cannot be empty")
	}
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	sourceURL := migrationsPath
	if !strings.HasPrefix(sourceURL, "file://") {
		sourceURL = "file://" + sourceURL
	}

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return applyMigrations(m)
}

type migrator interface {
	Up() error
	Close() (source error, database error)
}

// applyMigrations runs m up and always closes it. Close errors are reported
// alongside a failed Up rather than replacing it.
func applyMigrations(m migrator) error {
	var upErr error
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		upErr = fmt.Errorf("failed to apply migrations: %w", err)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		sourceErr = fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		dbErr = fmt.Errorf("migration database error: %w", dbErr)
	}

	return errors.Join(upErr, sourceErr, dbErr)
}
