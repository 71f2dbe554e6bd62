package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

const sendTimeout = 20 * time.Second

// Message is a rendered HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer, or a logging mailer when no SMTP host is configured.
func New(cfg config.SMTPConfig, log zerolog.Logger) Mailer {
	log = log.With().Str("component", "mailer").Logger()
	if cfg.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, emails will be logged instead of sent")
		return &LogMailer{log: log}
	}
	return &SMTPMailer{cfg: cfg}
}

// SMTPMailer sends through an SMTP relay. STARTTLS is used when the server
// offers it; PLAIN auth only when credentials are set.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out, err := newMsg(m.cfg.From, msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(sendTimeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// newMsg builds the MIME message. Addresses are parsed, so a recipient with
// embedded header lines is rejected rather than sent.
func newMsg(from string, msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	return out, nil
}

// LogMailer writes messages to the log. Used in development.
type LogMailer struct {
	log zerolog.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.HTMLBody).
		Msg("Email (not sent, SMTP disabled)")
	return nil
}
