// Package notify sends the transactional emails of the admin backend.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoRecipients     = errors.New("message has no recipients")
	ErrMissingSender    = errors.New("smtp sender address is required")
	ErrInvalidRecipient = errors.New("invalid recipient address")
)

// headerBreaks folds line breaks in user-supplied header text into spaces so a value
// can never start a new header.
var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Message is one email. Text is always sent; HTML is added as an alternative part
// when present.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds the outgoing mail settings. An empty Host selects the log mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewMailer builds the mailer described by cfg.
func NewMailer(cfg Config, logger *slog.Logger) (Mailer, error) {
	if cfg.Host == "" {
		return NewLogMailer(logger), nil
	}

	if cfg.From == "" {
		return nil, ErrMissingSender
	}

	sender, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", cfg.From, err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid smtp port %d", cfg.Port)
	}

	return &SMTPMailer{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:     cfg.Host,
		from:     sender.String(),
		envelope: sender.Address,
		auth:     plainAuth(cfg),
		send:     smtp.SendMail,
		logger:   logger.With("module", "smtp_mailer"),
	}, nil
}

func plainAuth(cfg Config) smtp.Auth {
	if cfg.Username == "" {
		return nil
	}

	return smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers messages through an SMTP relay. from is the header form of the
// sender, envelope the bare address used in MAIL FROM.
type SMTPMailer struct {
	addr     string
	host     string
	from     string
	envelope string
	auth     smtp.Auth
	send     sendFunc
	logger   *slog.Logger
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	recipients, err := parseRecipients(msg.To)
	if err != nil {
		return err
	}

	msg.To = recipients

	body, err := buildMessage(m.from, msg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	if err := m.send(m.addr, m.auth, m.envelope, recipients, body); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", m.host, err)
	}

	m.logger.DebugContext(ctx, "Mail sent", "to", msg.To, "subject", msg.Subject)

	return nil
}

// parseRecipients reduces each recipient to its bare address.
func parseRecipients(to []string) ([]string, error) {
	addresses := make([]string, 0, len(to))

	for _, recipient := range to {
		addr, err := mail.ParseAddress(recipient)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidRecipient, recipient, err)
		}

		addresses = append(addresses, addr.Address)
	}

	return addresses, nil
}

// encodeSubject strips line breaks and applies RFC 2047 encoding when the subject is
// not plain ASCII.
func encodeSubject(subject string) string {
	return mime.QEncoding.Encode("utf-8", headerBreaks.Replace(subject))
}

// buildMessage expects recipients already checked by parseRecipients.
func buildMessage(from string, msg Message, date time.Time) ([]byte, error) {
	var buf bytes.Buffer

	header := func(key, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}

	header("From", from)
	header("To", strings.Join(msg.To, ", "))
	header("Subject", encodeSubject(msg.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if msg.HTML == "" {
		header("Content-Type", "text/plain; charset=UTF-8")
		buf.WriteString("\r\n")
		buf.WriteString(msg.Text)

		return buf.Bytes(), nil
	}

	var parts bytes.Buffer

	writer := multipart.NewWriter(&parts)
	header("Content-Type", "multipart/alternative; boundary="+writer.Boundary())
	buf.WriteString("\r\n")

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		w, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}

		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	buf.Write(parts.Bytes())

	return buf.Bytes(), nil
}

// LogMailer writes messages to the log instead of sending them. It is used when no
// SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "log_mailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	m.logger.InfoContext(ctx, "Mail not sent, no smtp relay configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)

	return nil
}
