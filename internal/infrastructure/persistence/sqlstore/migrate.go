package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrMigrationFailed indicates a migration failure.
var ErrMigrationFailed = errors.New("sqlstore: migration failed")

const migrationsTable = "schema_migrations"

// MigrationStatus reports whether a migration has been applied.
type MigrationStatus struct {
	Version   int
	Name      string
	IsApplied bool
	// AppliedAt is the driver's rendering of the applied timestamp.
	AppliedAt string
}

func (s *Store) ensureMigrationTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
		version INTEGER PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (s *Store) appliedMigrations(ctx context.Context) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, applied_at FROM `+migrationsTable+` ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]string)
	for rows.Next() {
		var version int
		var appliedAt sql.NullString
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt.String
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations and returns how many were applied.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	if err := s.ensureMigrationTable(ctx); err != nil {
		return 0, err
	}
	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range s.dialect.Migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		for _, stmt := range mig.Up {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return count, fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
			}
		}
		_, err := s.db.ExecContext(ctx, `INSERT INTO `+migrationsTable+` (version, name) VALUES (?, ?)`, mig.Version, mig.Name)
		if err != nil {
			return count, fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
		count++
	}
	return count, nil
}

// Rollback reverts the last applied migration and returns its version, or 0
// when nothing was applied.
func (s *Store) Rollback(ctx context.Context) (int, error) {
	if err := s.ensureMigrationTable(ctx); err != nil {
		return 0, err
	}
	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	var last int
	for v := range applied {
		if v > last {
			last = v
		}
	}
	if last == 0 {
		return 0, nil
	}

	for _, mig := range s.dialect.Migrations {
		if mig.Version != last {
			continue
		}
		for _, stmt := range mig.Down {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return 0, fmt.Errorf("%w: rollback %d: %v", ErrMigrationFailed, last, err)
			}
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+migrationsTable+` WHERE version = ?`, last); err != nil {
			return 0, fmt.Errorf("%w: rollback %d: %v", ErrMigrationFailed, last, err)
		}
		return last, nil
	}
	return 0, fmt.Errorf("%w: unknown applied version %d", ErrMigrationFailed, last)
}

// Status lists every known migration and whether it is applied.
func (s *Store) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := s.ensureMigrationTable(ctx); err != nil {
		return nil, err
	}
	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, len(s.dialect.Migrations))
	for i, mig := range s.dialect.Migrations {
		at, ok := applied[mig.Version]
		out[i] = MigrationStatus{Version: mig.Version, Name: mig.Name, IsApplied: ok, AppliedAt: at}
	}
	return out, nil
}
