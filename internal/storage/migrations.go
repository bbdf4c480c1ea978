package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// A separate connection keeps migrate's Close from closing s.db.
	migrateDB, err := sql.Open("sqlite3", s.dbPath+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open migration database: %w", err)
	}
	defer func() { _ = migrateDB.Close() }()

	m, err := newMigrator(migrateDB)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	before, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Verify we're at the expected schema version
	after, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database schema version %d is dirty", after)
	}
	if after != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, after)
	}

	if after != before {
		slog.Info("Applied migrations", "from", before, "to", after)
	}
	return nil
}

// SchemaVersion reports the applied schema version, 0 for a fresh database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (uint, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version uint
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_migrations LIMIT 1`).Scan(&version)
	if err != nil {
		// the table is created by the first migration run
		var exists int
		if qErr := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`,
		).Scan(&exists); qErr == nil && exists == 0 {
			return 0, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
