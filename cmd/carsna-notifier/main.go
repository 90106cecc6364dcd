// Package main runs the Cars.na notification worker.
package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/carsna/carsna/pkg/cmd"
	"github.com/carsna/carsna/pkg/log"
	"github.com/carsna/carsna/pkg/notify"
	"github.com/carsna/carsna/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func main() {
	if err := cmd.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	flags := slices.Concat(cmd.CommonFlags(), cmd.MailFlags(), []cli.Flag{
		&cli.StringFlag{
			Name:    "digest-schedule",
			Usage:   "Cron schedule of the pending dealership digest (empty disables it)",
			Value:   notify.DefaultDigestSchedule,
			Sources: cli.EnvVars("DIGEST_SCHEDULE"),
		},
	})

	command := &cli.Command{
		Name:                  "carsna-notifier",
		Usage:                 "Send Cars.na notification email from domain events",
		EnableShellCompletion: true,
		Flags:                 flags,
		Commands: []*cli.Command{
			NewRunDigestCommand(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("notifier")

			logger.InfoContext(ctx, "Initializing Cars.na notifier")

			shutdownTracing, err := cmd.SetupTracing(ctx, command, "carsna-notifier", logger)
			if err != nil {
				return err
			}
			defer shutdownTracing(ctx)

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to open persistence: %w", err)
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), "carsna-notifier", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			mail, err := cmd.NewMail(command, logger)
			if err != nil {
				return err
			}

			options := services.NewOptions(persistence, nil, logger)
			dealerships := services.NewDealership(persistence, nil, options, logger)

			service := NewService(
				notify.NewNotifier(mail.Transport, mail.Templates, mail.Settings, logger),
				notify.NewDigest(dealerships, mail.Transport, mail.Templates, mail.Settings, logger),
				eventBus,
				command.String("digest-schedule"),
				logger,
			)

			return service.Start(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
