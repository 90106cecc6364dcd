// Package sqlbase applies versioned SQL schema migrations.
package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"slices"
	"strconv"
)

var ErrInvalidMigrationName = errors.New("migration files must be named NNNN_description.sql")

var migrationName = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.sql$`)

// Migration is one numbered schema change.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// LoadMigrations reads every *.sql file at the root of fsys, sorted by version.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	seen := make(map[int]string, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}

		match := migrationName.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMigrationName, entry.Name())
		}

		version, err := strconv.Atoi(match[1])
		if err != nil || version == 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMigrationName, entry.Name())
		}

		if previous, ok := seen[version]; ok {
			return nil, fmt.Errorf("migrations %s and %s share version %d", previous, entry.Name(), version)
		}

		seen[version] = entry.Name()

		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{Version: version, Name: match[2], SQL: string(body)})
	}

	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })

	return migrations, nil
}

// Migrator applies pending migrations inside one transaction. The transaction holds a
// postgres advisory lock, so processes starting together apply each migration once.
type Migrator struct {
	db         *sql.DB
	logger     *slog.Logger
	migrations []Migration
	lockID     int64
}

func NewMigrator(logger *slog.Logger, db *sql.DB, lockID int64, migrations []Migration) *Migrator {
	return &Migrator{
		db:         db,
		logger:     logger,
		migrations: migrations,
		lockID:     lockID,
	}
}

// LatestVersion is the highest migration version known to the migrator.
func (m *Migrator) LatestVersion() int {
	if len(m.migrations) == 0 {
		return 0
	}

	return m.migrations[len(m.migrations)-1].Version
}

// Pending returns the migrations newer than version.
func (m *Migrator) Pending(version int) []Migration {
	index, _ := slices.BinarySearchFunc(m.migrations, version+1, func(migration Migration, target int) int {
		return migration.Version - target
	})

	return m.migrations[index:]
}

// Run brings the schema up to LatestVersion.
func (m *Migrator) Run(ctx context.Context) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", m.lockID)
	if err != nil {
		return fmt.Errorf("failed to take migration lock: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int

	err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to query current schema version: %w", err)
	}

	pending := m.Pending(current)
	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "Schema is up to date", "version", current)

		return nil
	}

	for _, migration := range pending {
		m.logger.InfoContext(ctx, "Applying migration", "version", migration.Version, "name", migration.Name)

		_, err = tx.ExecContext(ctx, migration.SQL)
		if err != nil {
			return fmt.Errorf("failed to execute migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
			migration.Version, migration.Name)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	m.logger.InfoContext(ctx, "Database migrations completed", "from", current, "to", m.LatestVersion())

	return nil
}
