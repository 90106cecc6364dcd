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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/carsna/carsna/pkg/services")

type Dealership struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	options     *Options
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewDealership creates a new dealership service. publisher and options may be nil.
func NewDealership(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	options *Options,
	logger *slog.Logger,
) *Dealership {
	return &Dealership{
		persistence: persistence,
		publisher:   publisher,
		options:     options,
		validator:   NewValidator(),
		logger:      logger.With("module", "dealership_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (d *Dealership) HealthCheck(ctx context.Context) (string, bool) {
	if d.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := d.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateDealershipRequest is a completed onboarding application.
type CreateDealershipRequest struct {
	Name               string
	RegistrationNumber string
	TaxNumber          string
	BusinessType       models.BusinessType
	ContactName        string
	Email              string
	Phone              string
	Address            string
	City               string
	Region             string
	Website            string
	Documents          models.DealershipDocuments
	Plan               models.Plan
	CommissionRate     float64
}

// Create stores a new dealership in PENDING status and announces it.
func (d *Dealership) Create(ctx context.Context, req CreateDealershipRequest) (*models.Dealership, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "dealership.create")
	defer span.End()

	dealership := &models.Dealership{
		ID:                 uuid.New().String(),
		Name:               strings.TrimSpace(req.Name),
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		TaxNumber:          strings.TrimSpace(req.TaxNumber),
		BusinessType:       req.BusinessType,
		ContactName:        strings.TrimSpace(req.ContactName),
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:              strings.TrimSpace(req.Phone),
		Address:            strings.TrimSpace(req.Address),
		City:               strings.TrimSpace(req.City),
		Region:             strings.TrimSpace(req.Region),
		Website:            strings.TrimSpace(req.Website),
		Documents:          req.Documents,
		Plan:               req.Plan,
		CommissionRate:     req.CommissionRate,
		Status:             models.DealershipStatusPending,
	}

	span.SetAttributes(attribute.String(otelhelper.DealershipIDKey, dealership.ID))

	err := d.validator.Struct(dealership)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, NewValidationError("Create", "invalid_dealership", err.Error(), ErrInvalidRequest)
	}

	err = d.persistence.DealershipRepository().Save(ctx, dealership)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save dealership: %w", err)
	}

	d.logger.InfoContext(ctx, "Dealership created", "dealership_id", dealership.ID, "name", dealership.Name)

	d.publish(ctx, dealership.ID, events.DealershipCreated{
		BaseEvent:  events.NewBaseEvent(events.DealershipCreatedEvent),
		Dealership: *dealership,
	})
	d.invalidateOptions(ctx)

	return dealership, nil
}

// FetchByID returns a dealership or ErrDealershipNotFound.
func (d *Dealership) FetchByID(ctx context.Context, id string) (*models.Dealership, error) {
	dealership, err := d.persistence.DealershipRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get dealership by id: %w", err)
	}

	if dealership == nil {
		return nil, persistence.NewDealershipError("FetchByID", id, ErrDealershipNotFound)
	}

	return dealership, nil
}

// ListDealershipsRequest contains options for listing dealerships.
type ListDealershipsRequest struct {
	Limit     int
	Offset    int
	Status    *models.DealershipStatus
	SortBy    string
	SortOrder string
}

// ListDealershipsResponse contains the result of listing dealerships.
type ListDealershipsResponse struct {
	Dealerships []*models.Dealership `json:"dealerships"`
	TotalCount  int64                `json:"total_count"`
	HasNextPage bool                 `json:"has_next_page"`
}

// List retrieves dealerships with filtering, sorting, and pagination.
func (d *Dealership) List(ctx context.Context, req ListDealershipsRequest) (*ListDealershipsResponse, error) {
	opts := persistence.ListDealershipsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Status:    req.Status,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	opts.Normalize()

	err := validateListing(opts.SortBy, opts.SortOrder)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && !slices.Contains(models.DealershipStatuses, *req.Status) {
		return nil, ErrInvalidStatus
	}

	result, err := d.persistence.DealershipRepository().ListDealerships(ctx, opts)
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list dealerships: %w", err)
	}

	return &ListDealershipsResponse{
		Dealerships: result.Dealerships,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// UpdateStatus applies an admin review decision.
func (d *Dealership) UpdateStatus(ctx context.Context, id string, status models.DealershipStatus, reason string) (*models.Dealership, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "dealership.update_status",
		attribute.String(otelhelper.DealershipIDKey, id),
	)
	defer span.End()

	if !slices.Contains(models.DealershipStatuses, status) {
		return nil, NewValidationError("UpdateStatus", "invalid_status", "unknown status "+string(status), ErrInvalidStatus)
	}

	dealership, err := d.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := dealership.Status
	if !previous.CanTransitionTo(status) {
		return nil, &ServiceError{
			Op:      "UpdateStatus",
			Code:    "invalid_transition",
			Message: fmt.Sprintf("cannot move dealership from %s to %s", previous, status),
			Err:     ErrInvalidTransition,
		}
	}

	dealership.Status = status

	err = d.persistence.DealershipRepository().Save(ctx, dealership)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save dealership: %w", err)
	}

	d.logger.InfoContext(ctx, "Dealership status changed",
		"dealership_id", id, "from", previous, "to", status)

	d.publish(ctx, dealership.ID, events.DealershipStatusChanged{
		BaseEvent:      events.NewBaseEvent(events.DealershipStatusChangedEvent),
		Dealership:     *dealership,
		PreviousStatus: previous,
		Reason:         strings.TrimSpace(reason),
	})
	d.invalidateOptions(ctx)

	return dealership, nil
}

// Stats summarises dealerships for the admin dashboard.
type Stats struct {
	Total    int64                             `json:"total"`
	ByStatus map[models.DealershipStatus]int64 `json:"by_status"`
}

// Stats counts dealerships by status.
func (d *Dealership) Stats(ctx context.Context) (*Stats, error) {
	counts, err := d.persistence.DealershipRepository().CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count dealerships: %w", err)
	}

	stats := &Stats{ByStatus: counts}
	for _, count := range counts {
		stats.Total += count
	}

	return stats, nil
}

// publish sends an event without failing the caller; the record is already stored.
func (d *Dealership) publish(ctx context.Context, key string, event eventbus.Event) {
	if d.publisher == nil {
		return
	}

	err := d.publisher.Publish(ctx, key, event)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (d *Dealership) invalidateOptions(ctx context.Context) {
	if d.options != nil {
		d.options.Invalidate(ctx, models.OptionKindDealerships)
	}
}

func validateListing(sortBy, sortOrder string) error {
	if !slices.Contains(persistence.AllowedSortFields, sortBy) {
		return ErrInvalidSortField
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		return ErrInvalidSortOrder
	}

	return nil
}
