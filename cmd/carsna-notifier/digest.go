package main

import (
	"context"
	"fmt"

	"github.com/carsna/carsna/pkg/cmd"
	"github.com/carsna/carsna/pkg/log"
	"github.com/carsna/carsna/pkg/notify"
	"github.com/carsna/carsna/pkg/services"
	cli "github.com/urfave/cli/v3"
)

// NewRunDigestCommand sends the pending digest once and exits.
func NewRunDigestCommand() *cli.Command {
	return &cli.Command{
		Name:  "run-digest",
		Usage: "Send the pending dealership digest now",
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("notifier")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to open persistence: %w", err)
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			mail, err := cmd.NewMail(command, logger)
			if err != nil {
				return err
			}

			options := services.NewOptions(persistence, nil, logger)
			dealerships := services.NewDealership(persistence, nil, options, logger)

			sent, err := notify.NewDigest(dealerships, mail.Transport, mail.Templates, mail.Settings, logger).Run(ctx)
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Pending digest finished", "dealerships", sent)

			return nil
		},
	}
}
