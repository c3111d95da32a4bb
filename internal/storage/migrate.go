package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"budgetflow/internal/log"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationSet is one directory of embedded migrations with its own version table,
// so both sets can live in the same database file.
type migrationSet struct {
	dir   string
	table string
}

var (
	usersMigrations  = migrationSet{dir: "migrations/users", table: "schema_migrations_users"}
	budgetMigrations = migrationSet{dir: "migrations/budget", table: "schema_migrations_budget"}
)

// runMigrations applies set to the database at dbPath.
func runMigrations(ctx context.Context, dbPath string, set migrationSet, logger *log.Logger) error {
	// Separate connection: the migrate driver closes it when done
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{MigrationsTable: set.table})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, set.dir)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.DebugContext(ctx, "Schema up to date", log.FieldOperation, log.OpMigrate, log.FieldPath, dbPath, "set", set.table)
		return nil
	}
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.InfoContext(ctx, "Migrations applied",
		log.FieldOperation, log.OpMigrate, log.FieldPath, dbPath, "set", set.table, "version", version)
	return nil
}
