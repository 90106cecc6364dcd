package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/persistence"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const userColumns = `
	id
  , first_name
  , last_name
  , email
  , phone
  , role
  , dealership_id
  , password_hash
  , status
  , created_at
  , updated_at`

var userSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "first_name || ' ' || last_name",
}

// UserRepository handles user-related database operations.
type UserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB, logger *slog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user                models.User
		phone, dealershipID sql.NullString
		role, status        string
	)

	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&phone,
		&role,
		&dealershipID,
		&user.PasswordHash,
		&status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Phone = phone.String
	user.DealershipID = dealershipID.String
	user.Role = models.Role(role)
	user.Status = models.UserStatus(status)

	return &user, nil
}

// ListUsers returns paginated and filtered users.
func (r *UserRepository) ListUsers(ctx context.Context, opts persistence.ListUsersOptions) (*persistence.UserListResult, error) {
	opts.Normalize()

	if !slices.Contains(persistence.AllowedSortFields, opts.SortBy) {
		return nil, persistence.NewUserError("ListUsers", "", persistence.ErrInvalidSortField)
	}

	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if opts.Role != nil {
		args = append(args, string(*opts.Role))
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}

	if opts.DealershipID != "" {
		args = append(args, opts.DealershipID)
		conditions = append(conditions, fmt.Sprintf("dealership_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := "SELECT" + userColumns + " FROM users" + where +
		orderClause(opts.SortBy, opts.SortOrder, userSortColumns) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	users := make([]*models.User, 0, opts.Limit)

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, user)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return &persistence.UserListResult{
		Users:       users,
		TotalCount:  total,
		HasNextPage: int64(opts.Offset+len(users)) < total,
	}, nil
}

// GetByID returns a user or nil when it does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "GetByID", id, "SELECT"+userColumns+" FROM users WHERE id = $1", id)
}

// GetByEmail returns the user holding email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "GetByEmail", "", "SELECT"+userColumns+" FROM users WHERE LOWER(email) = LOWER($1)", email)
}

func (r *UserRepository) getOne(ctx context.Context, op, id, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, persistence.NewUserError(op, id, err)
	}

	return user, nil
}

// Save upserts a user. The unique email index turns duplicates into ErrEmailTaken.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	user.UpdatedAt = now

	query := `
		INSERT INTO users (` + strings.TrimSpace(userColumns) + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			role = EXCLUDED.role,
			dealership_id = EXCLUDED.dealership_id,
			password_hash = EXCLUDED.password_hash,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		nullString(user.Phone),
		string(user.Role),
		nullString(user.DealershipID),
		user.PasswordHash,
		string(user.Status),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewUserError("Save", user.ID, persistence.ErrEmailTaken)
		}

		return persistence.NewUserError("Save", user.ID, err)
	}

	return nil
}
