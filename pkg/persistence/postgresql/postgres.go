// Package postgresql provides PostgreSQL persistence for dealerships and users.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/carsna/carsna/pkg/persistence"
	"github.com/carsna/carsna/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	dealershipRepo *DealershipRepository
	userRepo       *UserRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema, err := migrations()
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	err = sqlbase.NewMigrator(logger, database, migrationLockID, schema).Run(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		dealershipRepo: NewDealershipRepository(database, logger),
		userRepo:       NewUserRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) DealershipRepository() persistence.DealershipRepository {
	return p.dealershipRepo
}

func (p *Persistence) UserRepository() persistence.UserRepository {
	return p.userRepo
}

// orderClause builds a safe ORDER BY from allowlisted listing options.
func orderClause(sortBy, sortOrder string, columns map[string]string) string {
	column, ok := columns[sortBy]
	if !ok {
		column = "created_at"
	}

	direction := "DESC"
	if sortOrder == "asc" {
		direction = "ASC"
	}

	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction)
}

func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
