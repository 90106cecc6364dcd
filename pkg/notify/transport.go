package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Transport is the process-wide mail transport. The mailer is built on the first send
// and reused afterwards; a failed build is remembered and every later send is skipped.
type Transport struct {
	build  func() (Mailer, error)
	logger *slog.Logger

	once   sync.Once
	mailer Mailer
	err    error
}

func NewTransport(build func() (Mailer, error), logger *slog.Logger) *Transport {
	return &Transport{
		build:  build,
		logger: logger.With("module", "mail_transport"),
	}
}

// NewConfigTransport builds its mailer from cfg on first use.
func NewConfigTransport(cfg Config, logger *slog.Logger) *Transport {
	return NewTransport(func() (Mailer, error) {
		return NewMailer(cfg, logger)
	}, logger)
}

// Send delivers msg and reports whether it went out. Errors are logged, never returned.
func (t *Transport) Send(ctx context.Context, msg Message) bool {
	t.once.Do(func() {
		t.mailer, t.err = t.build()
		if t.err != nil {
			t.logger.Error("Failed to initialise mail transport", "error", t.err)
		}
	})

	if t.err != nil {
		t.logger.WarnContext(ctx, "Mail transport unavailable, message dropped", "subject", msg.Subject)

		return false
	}

	if err := t.mailer.Send(ctx, msg); err != nil {
		t.logger.ErrorContext(ctx, "Failed to send mail", "subject", msg.Subject, "to", msg.To, "error", err)

		return false
	}

	return true
}
