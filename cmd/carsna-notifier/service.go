package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/carsna/carsna/pkg/eventbus"
	"github.com/carsna/carsna/pkg/notify"
	"github.com/robfig/cron/v3"
)

// Service consumes domain events and sends the pending digest on a schedule.
type Service struct {
	notifier *notify.Notifier
	digest   *notify.Digest
	eventBus eventbus.EventBus
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewService(
	notifier *notify.Notifier,
	digest *notify.Digest,
	eventBus eventbus.EventBus,
	schedule string,
	logger *slog.Logger,
) *Service {
	return &Service{
		notifier: notifier,
		digest:   digest,
		eventBus: eventBus,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Prepare registers the event handlers and the digest job without starting them.
func (s *Service) Prepare() error {
	if err := s.notifier.Register(s.eventBus); err != nil {
		return err
	}

	if s.schedule == "" {
		s.logger.Info("Pending digest disabled")

		return nil
	}

	if _, err := s.digest.Schedule(s.cron, s.schedule); err != nil {
		return err
	}

	s.logger.Info("Pending digest scheduled", "schedule", s.schedule)

	return nil
}

// Start runs until ctx is cancelled or the process receives SIGINT or SIGTERM.
func (s *Service) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Prepare(); err != nil {
		return err
	}

	if err := s.eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	s.cron.Start()

	s.logger.InfoContext(ctx, "Notifier started")

	<-ctx.Done()

	s.logger.Info("Shutting down notifier")

	<-s.cron.Stop().Done()

	return nil
}
