package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/carsna/carsna/pkg/eventbus"
	"github.com/carsna/carsna/pkg/events"
	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/otelhelper"
	"github.com/carsna/carsna/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted for new accounts.
const MinPasswordLength = 8

type User struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
	logger      *slog.Logger
	hashCost    int
}

// NewUser creates a new user service. publisher may be nil.
func NewUser(persistence persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *User {
	return &User{
		persistence: persistence,
		publisher:   publisher,
		validator:   NewValidator(),
		logger:      logger.With("module", "user_service"),
		hashCost:    bcrypt.DefaultCost,
	}
}

// CreateUserRequest is a completed user creation form. The password is plain text.
type CreateUserRequest struct {
	FirstName        string `validate:"required"`
	LastName         string `validate:"required"`
	Email            string `validate:"required,email"`
	Phone            string
	Role             models.Role `validate:"required,oneof=admin dealer_admin sales_agent viewer"`
	DealershipID     string
	Password         string `validate:"required,min=8"`
	SendWelcomeEmail bool
}

// Create stores a new active user with a bcrypt password hash.
func (u *User) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "user.create",
		attribute.String(otelhelper.UserRoleKey, string(req.Role)),
	)
	defer span.End()

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.DealershipID = strings.TrimSpace(req.DealershipID)

	err := u.validator.Struct(req)
	if err != nil {
		return nil, NewValidationError("Create", "invalid_user", err.Error(), ErrInvalidRequest)
	}

	dealershipName, err := u.resolveDealership(ctx, &req)
	if err != nil {
		return nil, err
	}

	existing, err := u.persistence.UserRepository().GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	if existing != nil {
		return nil, &ServiceError{Op: "Create", Code: "email_taken", Message: "email already in use", Err: ErrEmailTaken}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), u.hashCost)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		DealershipID: req.DealershipID,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
	}

	span.SetAttributes(attribute.String(otelhelper.UserIDKey, user.ID))

	err = u.persistence.UserRepository().Save(ctx, user)
	if err != nil {
		if persistence.IsEmailTaken(err) {
			return nil, &ServiceError{Op: "Create", Code: "email_taken", Message: "email already in use", Err: ErrEmailTaken}
		}

		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	u.logger.InfoContext(ctx, "User created", "user_id", user.ID, "role", user.Role)

	if u.publisher != nil {
		err = u.publisher.Publish(ctx, user.ID, events.UserCreated{
			BaseEvent:        events.NewBaseEvent(events.UserCreatedEvent),
			User:             *user,
			DealershipName:   dealershipName,
			SendWelcomeEmail: req.SendWelcomeEmail,
		})
		if err != nil {
			u.logger.ErrorContext(ctx, "Failed to publish event", "event_type", events.UserCreatedEvent, "error", err)
		}
	}

	return user, nil
}

// resolveDealership checks the dealership reference and returns its name.
// Roles that do not belong to a dealership drop the reference.
func (u *User) resolveDealership(ctx context.Context, req *CreateUserRequest) (string, error) {
	if !req.Role.RequiresDealership() {
		req.DealershipID = ""

		return "", nil
	}

	if req.DealershipID == "" {
		return "", NewValidationError("Create", "dealership_required",
			fmt.Sprintf("role %s requires a dealership", req.Role), ErrDealershipRequired)
	}

	dealership, err := u.persistence.DealershipRepository().GetByID(ctx, req.DealershipID)
	if err != nil {
		return "", fmt.Errorf("failed to get dealership: %w", err)
	}

	if dealership == nil {
		return "", persistence.NewDealershipError("Create", req.DealershipID, ErrDealershipNotFound)
	}

	if dealership.Status == models.DealershipStatusRejected {
		return "", NewValidationError("Create", "dealership_unavailable",
			"dealership "+dealership.Name+" was rejected", ErrDealershipUnavailable)
	}

	return dealership.Name, nil
}

// FetchByID returns a user or ErrUserNotFound.
func (u *User) FetchByID(ctx context.Context, id string) (*models.User, error) {
	user, err := u.persistence.UserRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	if user == nil {
		return nil, persistence.NewUserError("FetchByID", id, ErrUserNotFound)
	}

	return user, nil
}

// ListUsersRequest contains options for listing users.
type ListUsersRequest struct {
	Limit        int
	Offset       int
	Role         *models.Role
	DealershipID string
	SortBy       string
	SortOrder    string
}

// ListUsersResponse contains the result of listing users.
type ListUsersResponse struct {
	Users       []*models.User `json:"users"`
	TotalCount  int64          `json:"total_count"`
	HasNextPage bool           `json:"has_next_page"`
}

// List retrieves users with filtering, sorting, and pagination.
func (u *User) List(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error) {
	opts := persistence.ListUsersOptions{
		Limit:        req.Limit,
		Offset:       req.Offset,
		Role:         req.Role,
		DealershipID: req.DealershipID,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
	}
	opts.Normalize()

	err := validateListing(opts.SortBy, opts.SortOrder)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && !slices.Contains(models.Roles, *req.Role) {
		return nil, NewValidationError("List", "invalid_role", "unknown role "+string(*req.Role), ErrInvalidRequest)
	}

	result, err := u.persistence.UserRepository().ListUsers(ctx, opts)
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &ListUsersResponse{
		Users:       result.Users,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}
