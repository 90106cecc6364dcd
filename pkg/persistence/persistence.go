// Package persistence provides the storage abstraction for dealerships and users.
package persistence

import (
	"context"

	"github.com/carsna/carsna/pkg/models"
)

type Persistence interface {
	DealershipRepository() DealershipRepository
	UserRepository() UserRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// DealershipRepository stores dealerships. GetByID returns (nil, nil) when the
// dealership does not exist.
type DealershipRepository interface {
	ListDealerships(ctx context.Context, opts ListDealershipsOptions) (*DealershipListResult, error)
	GetByID(ctx context.Context, id string) (*models.Dealership, error)
	Save(ctx context.Context, dealership *models.Dealership) error
	CountByStatus(ctx context.Context) (map[models.DealershipStatus]int64, error)
}

// UserRepository stores users. Emails are unique regardless of case; Save returns
// ErrEmailTaken when another user already holds the address.
type UserRepository interface {
	ListUsers(ctx context.Context, opts ListUsersOptions) (*UserListResult, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

// ListDealershipsOptions filters, sorts and pages a dealership listing.
type ListDealershipsOptions struct {
	Limit     int
	Offset    int
	Status    *models.DealershipStatus
	SortBy    string // created_at, updated_at, name
	SortOrder string // asc, desc
}

type DealershipListResult struct {
	Dealerships []*models.Dealership
	TotalCount  int64
	HasNextPage bool
}

// ListUsersOptions filters, sorts and pages a user listing.
type ListUsersOptions struct {
	Limit        int
	Offset       int
	Role         *models.Role
	DealershipID string
	SortBy       string // created_at, updated_at, name
	SortOrder    string // asc, desc
}

type UserListResult struct {
	Users       []*models.User
	TotalCount  int64
	HasNextPage bool
}

// AllowedSortFields is the allowlist shared by every listing.
var AllowedSortFields = []string{"created_at", "updated_at", "name"}

// normalizePage applies listing defaults: 20 rows, newest first.
func normalizePage(limit, offset *int, sortBy, sortOrder *string) {
	if *limit <= 0 || *limit > 100 {
		*limit = 20
	}

	if *offset < 0 {
		*offset = 0
	}

	if *sortBy == "" {
		*sortBy = "created_at"
	}

	if *sortOrder == "" {
		*sortOrder = "desc"
	}
}

// Normalize fills in listing defaults.
func (o *ListDealershipsOptions) Normalize() {
	normalizePage(&o.Limit, &o.Offset, &o.SortBy, &o.SortOrder)
}

// Normalize fills in listing defaults.
func (o *ListUsersOptions) Normalize() {
	normalizePage(&o.Limit, &o.Offset, &o.SortBy, &o.SortOrder)
}
