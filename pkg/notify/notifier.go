package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carsna/carsna/pkg/eventbus"
	"github.com/carsna/carsna/pkg/events"
	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/otelhelper"
	"github.com/carsna/carsna/pkg/services"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/carsna/carsna/pkg/notify")

// Sender delivers a message and reports whether it went out.
type Sender interface {
	Send(ctx context.Context, msg Message) bool
}

// Settings are the addresses and links used in notification emails.
type Settings struct {
	AdminEmail string
	LoginURL   string
}

// Notifier turns domain events into emails. Delivery is best-effort: a message that
// cannot be sent is logged and the event is still acknowledged.
type Notifier struct {
	sender    Sender
	templates *Templates
	settings  Settings
	logger    *slog.Logger
}

func NewNotifier(sender Sender, templates *Templates, settings Settings, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender:    sender,
		templates: templates,
		settings:  settings,
		logger:    logger.With("module", "notifier"),
	}
}

type dealershipData struct {
	Dealership models.Dealership
	Reason     string
	LoginURL   string
}

type userData struct {
	User           models.User
	Role           string
	DealershipName string
	LoginURL       string
}

// Register attaches the notifier to every event it sends mail for.
func (n *Notifier) Register(subscriber eventbus.EventSubscriber) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.DealershipCreatedEvent:       n.onDealershipCreated,
		events.DealershipStatusChangedEvent: n.onDealershipStatusChanged,
		events.UserCreatedEvent:             n.onUserCreated,
	}

	for eventType, handler := range handlers {
		if err := subscriber.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", eventType, err)
		}
	}

	return nil
}

func (n *Notifier) onDealershipCreated(ctx context.Context, event any) error {
	created, ok := event.(*events.DealershipCreated)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	data := dealershipData{Dealership: created.Dealership, LoginURL: n.settings.LoginURL}

	n.deliver(ctx, TemplateDealershipWelcome,
		"We received your Cars.na application", data, created.Dealership.Email)

	if n.settings.AdminEmail != "" {
		n.deliver(ctx, TemplateAdminPending,
			"New dealership awaiting review: "+created.Dealership.Name, data, n.settings.AdminEmail)
	}

	return nil
}

func (n *Notifier) onDealershipStatusChanged(ctx context.Context, event any) error {
	changed, ok := event.(*events.DealershipStatusChanged)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	data := dealershipData{
		Dealership: changed.Dealership,
		Reason:     changed.Reason,
		LoginURL:   n.settings.LoginURL,
	}

	n.deliver(ctx, TemplateDealershipStatus, statusSubject(changed.Dealership), data, changed.Dealership.Email)

	return nil
}

func statusSubject(dealership models.Dealership) string {
	switch dealership.Status {
	case models.DealershipStatusActive:
		return dealership.Name + " is now live on Cars.na"
	case models.DealershipStatusRejected:
		return "Your Cars.na application for " + dealership.Name
	case models.DealershipStatusSuspended:
		return dealership.Name + " has been suspended"
	default:
		return "Status update for " + dealership.Name
	}
}

func (n *Notifier) onUserCreated(ctx context.Context, event any) error {
	created, ok := event.(*events.UserCreated)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	if !created.SendWelcomeEmail {
		n.logger.DebugContext(ctx, "Welcome email not requested", "user_id", created.User.ID)

		return nil
	}

	data := userData{
		User:           created.User,
		Role:           services.RoleLabel(created.User.Role),
		DealershipName: created.DealershipName,
		LoginURL:       n.settings.LoginURL,
	}

	n.deliver(ctx, TemplateUserWelcome, "Welcome to Cars.na", data, created.User.Email)

	return nil
}

func (n *Notifier) deliver(ctx context.Context, template, subject string, data any, to ...string) bool {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "notify.deliver",
		attribute.String(otelhelper.TemplateKey, template),
	)
	defer span.End()

	msg, err := n.templates.Compose(template, subject, data, to...)
	if err != nil {
		otelhelper.SetError(span, err)
		n.logger.ErrorContext(ctx, "Failed to compose mail", "template", template, "error", err)

		return false
	}

	return n.sender.Send(ctx, msg)
}
