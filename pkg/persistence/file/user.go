package file

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/persistence"
)

// UserRepository handles user file operations. The write lock covers both the
// email uniqueness check and the write.
type UserRepository struct {
	mu      sync.RWMutex
	records recordDir[storedUser]
}

// storedUser keeps the password hash on disk; models.User hides it from JSON.
type storedUser struct {
	models.User

	PasswordHash string `json:"password_hash"`
}

func (s *storedUser) toUser() *models.User {
	user := s.User
	user.PasswordHash = s.PasswordHash

	return &user
}

// NewUserRepository creates a new user repository.
func NewUserRepository(root string) *UserRepository {
	return &UserRepository{records: newRecordDir[storedUser](root, "users")}
}

func (r *UserRepository) all() ([]*models.User, error) {
	stored, err := r.records.all()
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(stored))
	for _, s := range stored {
		users = append(users, s.toUser())
	}

	return users, nil
}

// ListUsers returns paginated and filtered users with in-memory operations.
func (r *UserRepository) ListUsers(_ context.Context, opts persistence.ListUsersOptions) (*persistence.UserListResult, error) {
	opts.Normalize()

	if !slices.Contains(persistence.AllowedSortFields, opts.SortBy) {
		return nil, persistence.NewUserError("ListUsers", "", persistence.ErrInvalidSortField)
	}

	r.mu.RLock()
	all, err := r.all()
	r.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	filtered := make([]*models.User, 0, len(all))

	for _, user := range all {
		if opts.Role != nil && user.Role != *opts.Role {
			continue
		}

		if opts.DealershipID != "" && user.DealershipID != opts.DealershipID {
			continue
		}

		filtered = append(filtered, user)
	}

	total := int64(len(filtered))
	rows, hasNext := page(filtered, opts.Offset, opts.Limit, userLess(opts.SortBy), opts.SortOrder == "desc")

	return &persistence.UserListResult{
		Users:       rows,
		TotalCount:  total,
		HasNextPage: hasNext,
	}, nil
}

func userLess(sortBy string) func(a, b *models.User) bool {
	switch sortBy {
	case "updated_at":
		return func(a, b *models.User) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "name":
		return func(a, b *models.User) bool { return a.FullName() < b.FullName() }
	default:
		return func(a, b *models.User) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

// GetByID retrieves a user by its ID from the file system.
func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, err := r.records.get(id)
	if err != nil {
		return nil, persistence.NewUserError("GetByID", id, err)
	}

	if stored == nil {
		return nil, nil
	}

	return stored.toUser(), nil
}

// GetByEmail finds a user by email, ignoring case.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.findByEmail(email)
}

func (r *UserRepository) findByEmail(email string) (*models.User, error) {
	all, err := r.all()
	if err != nil {
		return nil, persistence.NewUserError("GetByEmail", "", err)
	}

	for _, user := range all {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}

	return nil, nil
}

// Save writes a user, setting its timestamps.
func (r *UserRepository) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.findByEmail(user.Email)
	if err != nil {
		return err
	}

	if existing != nil && existing.ID != user.ID {
		return persistence.NewUserError("Save", user.ID, persistence.ErrEmailTaken)
	}

	touch(&user.CreatedAt, &user.UpdatedAt)

	err = r.records.put(user.ID, &storedUser{User: *user, PasswordHash: user.PasswordHash})
	if err != nil {
		return persistence.NewUserError("Save", user.ID, err)
	}

	return nil
}
