package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/carsna/carsna/pkg/cache"
	"github.com/carsna/carsna/pkg/cmd"
	"github.com/carsna/carsna/pkg/log"
	"github.com/carsna/carsna/pkg/notify"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	if err := cmd.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	flags := slices.Concat(cmd.CommonFlags(), cmd.MailFlags(), []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for the shared option cache (in-process cache when empty)",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.DurationFlag{
			Name:    "options-ttl",
			Usage:   "How long cached dropdown options are served",
			Value:   cache.DefaultTTL,
			Sources: cli.EnvVars("OPTIONS_TTL"),
		},
		&cli.DurationFlag{
			Name:    "wizard-idle-timeout",
			Usage:   "Cancel wizards left untouched for this long",
			Value:   30 * time.Minute,
			Sources: cli.EnvVars("WIZARD_IDLE_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:    "notify",
			Usage:   "Send notification email from this process",
			Value:   true,
			Sources: cli.EnvVars("NOTIFY_ENABLED"),
		},
	})

	command := &cli.Command{
		Name:                  "carsna-api",
		Usage:                 "Serve the Cars.na admin API and onboarding wizards",
		EnableShellCompletion: true,
		Flags:                 flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Cars.na API")

			shutdownTracing, err := cmd.SetupTracing(ctx, command, "carsna-api", logger)
			if err != nil {
				return err
			}
			defer shutdownTracing(ctx)

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to open persistence: %w", err)
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), "carsna-api", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			optionCache := cmd.NewOptionCache(ctx, logger, command.String("redis-url"), command.Duration("options-ttl"))
			defer func() {
				if err := optionCache.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close option cache", "error", err)
				}
			}()

			if command.Bool("notify") {
				mail, err := cmd.NewMail(command, logger)
				if err != nil {
					return err
				}

				notifier := notify.NewNotifier(mail.Transport, mail.Templates, mail.Settings, logger)
				if err := notifier.Register(eventBus); err != nil {
					return err
				}

				if err := eventBus.Subscribe(ctx); err != nil {
					return fmt.Errorf("failed to subscribe to events: %w", err)
				}
			}

			api := NewAPI(
				logger,
				persistence,
				eventBus,
				optionCache,
				Config{
					IdleTimeout: command.Duration("wizard-idle-timeout"),
				},
			)

			err = api.Start(ctx, command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "API server stopped", "error", err)
			}

			return err
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
