package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/carsna/carsna/pkg/notify"
	"github.com/carsna/carsna/pkg/otelhelper"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

// LoadDotEnv loads the given env files, or .env, into the process environment.
// Missing files are skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	existing := make([]string, 0, len(paths))

	for _, path := range paths {
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		existing = append(existing, path)
	}

	if len(existing) == 0 {
		return nil
	}

	return godotenv.Load(existing...)
}

// CommonFlags are shared by every binary.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Database connection URL for persistence (postgres://... or a directory)",
			Value:   "file://./data",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringSliceFlag{
			Name:    "kafka-brokers",
			Usage:   "Kafka broker addresses",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export traces over OTLP/HTTP (configured by OTEL_EXPORTER_OTLP_* variables)",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
		&cli.FloatFlag{
			Name:    "trace-sample-ratio",
			Usage:   "Fraction of new traces to sample (1 samples everything)",
			Value:   1,
			Sources: cli.EnvVars("TRACE_SAMPLE_RATIO"),
		},
	}
}

// MailFlags configure outgoing notification email.
func MailFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP relay host; mail is only logged when empty",
			Sources: cli.EnvVars("SMTP_HOST"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Usage:   "SMTP relay port",
			Value:   587,
			Sources: cli.EnvVars("SMTP_PORT"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.EnvVars("SMTP_USERNAME"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.EnvVars("SMTP_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "mail-from",
			Usage:   "Sender address of notification email",
			Value:   "Cars.na <noreply@cars.na>",
			Sources: cli.EnvVars("MAIL_FROM"),
		},
		&cli.StringFlag{
			Name:    "admin-email",
			Usage:   "Address that receives review alerts and the pending digest",
			Sources: cli.EnvVars("ADMIN_EMAIL"),
		},
		&cli.StringFlag{
			Name:    "login-url",
			Usage:   "Admin panel sign-in URL used in email links",
			Value:   "https://admin.cars.na/login",
			Sources: cli.EnvVars("LOGIN_URL"),
		},
	}
}

func MailConfig(command *cli.Command) notify.Config {
	return notify.Config{
		Host:     command.String("smtp-host"),
		Port:     command.Int("smtp-port"),
		Username: command.String("smtp-username"),
		Password: command.String("smtp-password"),
		From:     command.String("mail-from"),
	}
}

func NotifySettings(command *cli.Command) notify.Settings {
	return notify.Settings{
		AdminEmail: command.String("admin-email"),
		LoginURL:   command.String("login-url"),
	}
}

// Mail bundles what the notifier and the digest need to send email.
type Mail struct {
	Templates *notify.Templates
	Transport *notify.Transport
	Settings  notify.Settings
}

// NewMail prepares notification email. The mail transport is not built until the
// first message goes out.
func NewMail(command *cli.Command, logger *slog.Logger) (*Mail, error) {
	templates, err := notify.LoadTemplates()
	if err != nil {
		return nil, err
	}

	return &Mail{
		Templates: templates,
		Transport: notify.NewConfigTransport(MailConfig(command), logger),
		Settings:  NotifySettings(command),
	}, nil
}

// SetupTracing installs the OTLP tracer provider when the tracing flag is set. The
// returned shutdown function is always safe to call.
func SetupTracing(ctx context.Context, command *cli.Command, serviceName string, logger *slog.Logger) (func(context.Context), error) {
	if !command.Bool("tracing") {
		return func(context.Context) {}, nil
	}

	ratio := command.Float("trace-sample-ratio")
	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("trace sample ratio %v is outside [0, 1]", ratio)
	}

	tracerProvider, err := otelhelper.NewTracerProvider(ctx, serviceName, ratio)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	return func(ctx context.Context) {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}, nil
}
