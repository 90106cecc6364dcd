package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/persistence"
)

const dealershipColumns = `
	id
  , name
  , registration_number
  , tax_number
  , business_type
  , contact_name
  , email
  , phone
  , address
  , city
  , region
  , website
  , documents
  , plan
  , commission_rate
  , status
  , created_at
  , updated_at`

var dealershipSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
}

// DealershipRepository handles dealership-related database operations.
type DealershipRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDealershipRepository creates a new dealership repository.
func NewDealershipRepository(db *sql.DB, logger *slog.Logger) *DealershipRepository {
	return &DealershipRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDealership(row rowScanner) (*models.Dealership, error) {
	var (
		dealership                 models.Dealership
		taxNumber, website         sql.NullString
		documentsJSON              []byte
		businessType, plan, status string
	)

	err := row.Scan(
		&dealership.ID,
		&dealership.Name,
		&dealership.RegistrationNumber,
		&taxNumber,
		&businessType,
		&dealership.ContactName,
		&dealership.Email,
		&dealership.Phone,
		&dealership.Address,
		&dealership.City,
		&dealership.Region,
		&website,
		&documentsJSON,
		&plan,
		&dealership.CommissionRate,
		&status,
		&dealership.CreatedAt,
		&dealership.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	dealership.TaxNumber = taxNumber.String
	dealership.Website = website.String
	dealership.BusinessType = models.BusinessType(businessType)
	dealership.Plan = models.Plan(plan)
	dealership.Status = models.DealershipStatus(status)

	if len(documentsJSON) > 0 {
		err = json.Unmarshal(documentsJSON, &dealership.Documents)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
		}
	}

	return &dealership, nil
}

// ListDealerships returns paginated and filtered dealerships.
func (r *DealershipRepository) ListDealerships(ctx context.Context, opts persistence.ListDealershipsOptions) (*persistence.DealershipListResult, error) {
	opts.Normalize()

	if !slices.Contains(persistence.AllowedSortFields, opts.SortBy) {
		return nil, persistence.NewDealershipError("ListDealerships", "", persistence.ErrInvalidSortField)
	}

	where := ""
	args := make([]any, 0, 3)

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		where = " WHERE status = $1"
	}

	var total int64

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dealerships"+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count dealerships: %w", err)
	}

	query := "SELECT" + dealershipColumns + " FROM dealerships" + where +
		orderClause(opts.SortBy, opts.SortOrder, dealershipSortColumns) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dealerships: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	dealerships := make([]*models.Dealership, 0, opts.Limit)

	for rows.Next() {
		dealership, err := scanDealership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dealership: %w", err)
		}

		dealerships = append(dealerships, dealership)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating dealerships: %w", err)
	}

	return &persistence.DealershipListResult{
		Dealerships: dealerships,
		TotalCount:  total,
		HasNextPage: int64(opts.Offset+len(dealerships)) < total,
	}, nil
}

// GetByID returns a dealership or nil when it does not exist.
func (r *DealershipRepository) GetByID(ctx context.Context, id string) (*models.Dealership, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+dealershipColumns+" FROM dealerships WHERE id = $1", id)

	dealership, err := scanDealership(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, persistence.NewDealershipError("GetByID", id, err)
	}

	return dealership, nil
}

// Save upserts a dealership.
func (r *DealershipRepository) Save(ctx context.Context, dealership *models.Dealership) error {
	now := time.Now().UTC()

	if dealership.CreatedAt.IsZero() {
		dealership.CreatedAt = now
	}

	dealership.UpdatedAt = now

	documentsJSON, err := json.Marshal(dealership.Documents)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	query := `
		INSERT INTO dealerships (` + strings.TrimSpace(dealershipColumns) + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			registration_number = EXCLUDED.registration_number,
			tax_number = EXCLUDED.tax_number,
			business_type = EXCLUDED.business_type,
			contact_name = EXCLUDED.contact_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			region = EXCLUDED.region,
			website = EXCLUDED.website,
			documents = EXCLUDED.documents,
			plan = EXCLUDED.plan,
			commission_rate = EXCLUDED.commission_rate,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		dealership.ID,
		dealership.Name,
		dealership.RegistrationNumber,
		nullString(dealership.TaxNumber),
		string(dealership.BusinessType),
		dealership.ContactName,
		dealership.Email,
		dealership.Phone,
		dealership.Address,
		dealership.City,
		dealership.Region,
		nullString(dealership.Website),
		documentsJSON,
		string(dealership.Plan),
		dealership.CommissionRate,
		string(dealership.Status),
		dealership.CreatedAt,
		dealership.UpdatedAt,
	)
	if err != nil {
		return persistence.NewDealershipError("Save", dealership.ID, err)
	}

	return nil
}

// CountByStatus returns how many dealerships are in each status.
func (r *DealershipRepository) CountByStatus(ctx context.Context) (map[models.DealershipStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM dealerships GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count dealerships: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	counts := make(map[models.DealershipStatus]int64, len(models.DealershipStatuses))
	for _, status := range models.DealershipStatuses {
		counts[status] = 0
	}

	for rows.Next() {
		var (
			status string
			count  int64
		)

		err := rows.Scan(&status, &count)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}

		counts[models.DealershipStatus(status)] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
