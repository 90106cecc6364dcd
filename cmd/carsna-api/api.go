// Package main provides the Cars.na API server implementation.
package main

import (
	"context"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/carsna/carsna/pkg/cache"
	"github.com/carsna/carsna/pkg/eventbus"
	"github.com/carsna/carsna/pkg/onboarding"
	"github.com/carsna/carsna/pkg/persistence"
	"github.com/carsna/carsna/pkg/services"
	"github.com/carsna/carsna/pkg/web"
	"github.com/carsna/carsna/pkg/wizard"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/robfig/cron/v3"
)

const sweepSchedule = "@every 1m"

type Config struct {
	IdleTimeout time.Duration
}

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	optionCache cache.OptionCache
	config      Config
	sessions    *wizard.Sessions
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	optionCache cache.OptionCache,
	config Config,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		optionCache: optionCache,
		config:      config,
		sessions:    wizard.NewSessions(),
		validate:    services.NewValidator(),
	}
}

func (a *API) App() *fiber.App {
	optionsService := services.NewOptions(a.persistence, a.optionCache, a.logger)
	dealershipService := services.NewDealership(a.persistence, a.eventBus, optionsService, a.logger)
	userService := services.NewUser(a.persistence, a.eventBus, a.logger)

	onboarding.Register(a.sessions, dealershipService, userService, a.logger)

	handlers := web.NewAPIHandlers(dealershipService, userService, optionsService, a.sessions, a.validate)
	wizardHandlers := web.NewWizardHandlers(a.sessions)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			_, ok := dealershipService.HealthCheck(c.Context())

			return ok
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Cars.na API")
	})

	handlers.Routes(app)
	wizardHandlers.Routes(app)

	return app
}

// sweeper cancels abandoned wizards so their drafts do not pile up in memory.
func (a *API) sweeper() (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(sweepSchedule, func() {
		closed := a.sessions.Sweep(a.config.IdleTimeout)
		if closed > 0 {
			a.logger.Info("Cancelled idle wizards", "count", closed)
		}
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Start serves until ctx is cancelled or the process receives SIGINT or SIGTERM.
func (a *API) Start(ctx context.Context, port int) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := a.App()

	if a.config.IdleTimeout > 0 {
		sweeper, err := a.sweeper()
		if err != nil {
			return err
		}

		sweeper.Start()
		defer sweeper.Stop()
	}

	errs := make(chan error, 1)

	go func() {
		errs <- app.Listen(":" + strconv.Itoa(port))
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		a.logger.Info("Shutting down API server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		return app.ShutdownWithContext(shutdownCtx)
	}
}
