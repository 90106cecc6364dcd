package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/services"
	"github.com/robfig/cron/v3"
)

// DefaultDigestSchedule runs the digest every weekday morning.
const DefaultDigestSchedule = "0 8 * * 1-5"

const digestPageSize = 100

// DealershipLister pages through dealerships.
type DealershipLister interface {
	List(ctx context.Context, req services.ListDealershipsRequest) (*services.ListDealershipsResponse, error)
}

type digestData struct {
	Dealerships []*models.Dealership
	LoginURL    string
}

// Digest mails the admin a summary of the dealerships still waiting for review.
type Digest struct {
	lister    DealershipLister
	sender    Sender
	templates *Templates
	settings  Settings
	timeout   time.Duration
	logger    *slog.Logger
}

func NewDigest(lister DealershipLister, sender Sender, templates *Templates, settings Settings, logger *slog.Logger) *Digest {
	return &Digest{
		lister:    lister,
		sender:    sender,
		templates: templates,
		settings:  settings,
		timeout:   time.Minute,
		logger:    logger.With("module", "pending_digest"),
	}
}

// Schedule adds the digest to c using a standard five-field cron spec.
func (d *Digest) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if _, err := d.Run(ctx); err != nil {
			d.logger.Error("Pending digest failed", "error", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}

	return id, nil
}

// Run sends one digest and returns how many pending dealerships it listed. Nothing is
// sent when the queue is empty or no admin address is configured.
func (d *Digest) Run(ctx context.Context) (int, error) {
	if d.settings.AdminEmail == "" {
		d.logger.WarnContext(ctx, "No admin email configured, skipping pending digest")

		return 0, nil
	}

	pending, err := d.pending(ctx)
	if err != nil {
		return 0, err
	}

	if len(pending) == 0 {
		d.logger.InfoContext(ctx, "No dealerships awaiting review")

		return 0, nil
	}

	msg, err := d.templates.Compose(TemplatePendingDigest,
		fmt.Sprintf("%d dealership(s) awaiting review", len(pending)),
		digestData{Dealerships: pending, LoginURL: d.settings.LoginURL},
		d.settings.AdminEmail,
	)
	if err != nil {
		return 0, err
	}

	if d.sender.Send(ctx, msg) {
		d.logger.InfoContext(ctx, "Pending digest sent", "count", len(pending))
	}

	return len(pending), nil
}

func (d *Digest) pending(ctx context.Context) ([]*models.Dealership, error) {
	status := models.DealershipStatusPending
	all := make([]*models.Dealership, 0)

	for offset := 0; ; offset += digestPageSize {
		page, err := d.lister.List(ctx, services.ListDealershipsRequest{
			Limit:     digestPageSize,
			Offset:    offset,
			Status:    &status,
			SortBy:    "created_at",
			SortOrder: "asc",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list pending dealerships: %w", err)
		}

		all = append(all, page.Dealerships...)

		if !page.HasNextPage {
			return all, nil
		}
	}
}
