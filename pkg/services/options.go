package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/carsna/carsna/pkg/cache"
	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/persistence"
)

var roleLabels = map[models.Role]string{
	models.RoleAdmin:       "Administrator",
	models.RoleDealerAdmin: "Dealer administrator",
	models.RoleSalesAgent:  "Sales agent",
	models.RoleViewer:      "Viewer",
}

var planLabels = map[models.Plan]string{
	models.PlanBasic:      "Basic",
	models.PlanPremium:    "Premium",
	models.PlanEnterprise: "Enterprise",
}

var businessTypeLabels = map[models.BusinessType]string{
	models.BusinessTypeIndependent: "Independent dealer",
	models.BusinessTypeFranchise:   "Franchise dealer",
	models.BusinessTypeFleet:       "Fleet seller",
}

// RoleLabel returns the display name of a role.
func RoleLabel(role models.Role) string {
	if label, ok := roleLabels[role]; ok {
		return label
	}

	return string(role)
}

// Options serves the reference lists used by wizard dropdowns.
type Options struct {
	persistence persistence.Persistence
	cache       cache.OptionCache
	logger      *slog.Logger
}

// NewOptions creates the options service. A nil cache disables caching.
func NewOptions(persistence persistence.Persistence, optionCache cache.OptionCache, logger *slog.Logger) *Options {
	return &Options{
		persistence: persistence,
		cache:       optionCache,
		logger:      logger.With("module", "options_service"),
	}
}

// ListReferenceOptions returns the options of one kind.
func (o *Options) ListReferenceOptions(ctx context.Context, kind string) ([]models.Option, error) {
	switch models.OptionKind(kind) {
	case models.OptionKindRoles:
		return staticOptions(models.Roles, roleLabels), nil
	case models.OptionKindPlans:
		return staticOptions(models.Plans, planLabels), nil
	case models.OptionKindBusinessTypes:
		return staticOptions(models.BusinessTypes, businessTypeLabels), nil
	case models.OptionKindDealerships:
		return o.dealershipOptions(ctx)
	default:
		return nil, &ServiceError{Op: "ListReferenceOptions", Code: "unknown_kind", Message: "unknown option kind " + kind, Err: ErrUnknownOptionKind}
	}
}

// Invalidate drops a cached list. Cache failures are logged only.
func (o *Options) Invalidate(ctx context.Context, kind models.OptionKind) {
	if o.cache == nil {
		return
	}

	err := o.cache.Invalidate(ctx, kind)
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to invalidate cached options", "kind", kind, "error", err)
	}
}

func staticOptions[T ~string](values []T, labels map[T]string) []models.Option {
	options := make([]models.Option, 0, len(values))
	for _, value := range values {
		options = append(options, models.Option{ID: string(value), Label: labels[value]})
	}

	return options
}

// dealershipOptions lists every dealership that can still accept users, by name.
func (o *Options) dealershipOptions(ctx context.Context) ([]models.Option, error) {
	if o.cache != nil {
		cached, ok, err := o.cache.Get(ctx, models.OptionKindDealerships)
		if err != nil {
			o.logger.WarnContext(ctx, "Failed to read cached options", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	options := make([]models.Option, 0)
	opts := persistence.ListDealershipsOptions{Limit: 100, SortBy: "name", SortOrder: "asc"}

	for {
		result, err := o.persistence.DealershipRepository().ListDealerships(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list dealerships: %w", err)
		}

		for _, dealership := range result.Dealerships {
			if dealership.Status == models.DealershipStatusRejected {
				continue
			}

			options = append(options, models.Option{ID: dealership.ID, Label: dealership.Name})
		}

		if !result.HasNextPage {
			break
		}

		opts.Offset += opts.Limit
	}

	sort.SliceStable(options, func(i, j int) bool { return options[i].Label < options[j].Label })

	if o.cache != nil {
		err := o.cache.Set(ctx, models.OptionKindDealerships, options)
		if err != nil {
			o.logger.WarnContext(ctx, "Failed to cache options", "error", err)
		}
	}

	return options, nil
}
