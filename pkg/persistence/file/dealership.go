package file

import (
	"context"
	"slices"
	"sync"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/persistence"
)

// DealershipRepository handles dealership file operations.
type DealershipRepository struct {
	mu      sync.RWMutex
	records recordDir[models.Dealership]
}

// NewDealershipRepository creates a new dealership repository.
func NewDealershipRepository(root string) *DealershipRepository {
	return &DealershipRepository{records: newRecordDir[models.Dealership](root, "dealerships")}
}

// ListDealerships returns paginated and filtered dealerships with in-memory operations.
func (r *DealershipRepository) ListDealerships(_ context.Context, opts persistence.ListDealershipsOptions) (*persistence.DealershipListResult, error) {
	opts.Normalize()

	if !slices.Contains(persistence.AllowedSortFields, opts.SortBy) {
		return nil, persistence.NewDealershipError("ListDealerships", "", persistence.ErrInvalidSortField)
	}

	r.mu.RLock()
	all, err := r.records.all()
	r.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Dealership, 0, len(all))

	for _, dealership := range all {
		if opts.Status != nil && dealership.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, dealership)
	}

	total := int64(len(filtered))
	rows, hasNext := page(filtered, opts.Offset, opts.Limit, dealershipLess(opts.SortBy), opts.SortOrder == "desc")

	return &persistence.DealershipListResult{
		Dealerships: rows,
		TotalCount:  total,
		HasNextPage: hasNext,
	}, nil
}

func dealershipLess(sortBy string) func(a, b *models.Dealership) bool {
	switch sortBy {
	case "updated_at":
		return func(a, b *models.Dealership) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "name":
		return func(a, b *models.Dealership) bool { return a.Name < b.Name }
	default:
		return func(a, b *models.Dealership) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

// GetByID retrieves a dealership by its ID from the file system.
func (r *DealershipRepository) GetByID(_ context.Context, id string) (*models.Dealership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dealership, err := r.records.get(id)
	if err != nil {
		return nil, persistence.NewDealershipError("GetByID", id, err)
	}

	return dealership, nil
}

// Save writes a dealership, setting its timestamps.
func (r *DealershipRepository) Save(_ context.Context, dealership *models.Dealership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	touch(&dealership.CreatedAt, &dealership.UpdatedAt)

	err := r.records.put(dealership.ID, dealership)
	if err != nil {
		return persistence.NewDealershipError("Save", dealership.ID, err)
	}

	return nil
}

// CountByStatus returns how many dealerships are in each status.
func (r *DealershipRepository) CountByStatus(_ context.Context) (map[models.DealershipStatus]int64, error) {
	r.mu.RLock()
	all, err := r.records.all()
	r.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	counts := make(map[models.DealershipStatus]int64, len(models.DealershipStatuses))
	for _, status := range models.DealershipStatuses {
		counts[status] = 0
	}

	for _, dealership := range all {
		counts[dealership.Status]++
	}

	return counts, nil
}
