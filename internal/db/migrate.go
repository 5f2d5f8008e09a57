package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/clubroom/apiserver/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrateStep moves the schema; see Up and Down.
type MigrateStep func(m *migrate.Migrate) error

var (
	// Up applies every pending migration.
	Up MigrateStep = func(m *migrate.Migrate) error { return m.Up() }
	// Down rolls back the most recent migration.
	Down MigrateStep = func(m *migrate.Migrate) error { return m.Steps(-1) }
)

// Migrate runs step against the database using the migration files in dir.
// A schema that is already current is not an error.
func Migrate(cfg config.DatabaseConfig, dir string, step MigrateStep) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}

	migrator, err := migrate.New("file://"+filepath.ToSlash(abs), PostgresURL(cfg))
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := step(migrator); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
