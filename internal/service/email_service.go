package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	confirmTemplate = template.Must(template.New("confirm").Parse(
		`<p>Xin chào {{.Name}},</p>
<p>Please confirm your email address to start practising for your driving license exam.</p>
<p><a href="{{.Link}}">Confirm my email</a></p>
<p>This link expires in {{.Expiry}}.</p>`))

	resetTemplate = template.Must(template.New("reset").Parse(
		`<p>Xin chào {{.Name}},</p>
<p>We received a request to reset your password.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>This link expires in {{.Expiry}}. If you did not ask for it, ignore this email.</p>`))
)

// EmailService renders account emails and queues them for the email worker.
type EmailService struct {
	cfg *config.Config
	rdb *redis.Client
	log zerolog.Logger
}

// NewEmailService creates a new EmailService.
func NewEmailService(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *EmailService {
	return &EmailService{
		cfg: cfg,
		rdb: rdb,
		log: log.With().Str("component", "email_service").Logger(),
	}
}

// SendConfirmation queues the email confirmation link.
func (s *EmailService) SendConfirmation(ctx context.Context, user *model.User, token string) error {
	link := s.cfg.PublicBaseURL + "/api/v1/auth/confirm-email?token=" + url.QueryEscape(token)
	return s.render(ctx, user, "Confirm your email", confirmTemplate, link, s.cfg.EmailTokenExpiry.String())
}

// SendPasswordReset queues the password reset link.
func (s *EmailService) SendPasswordReset(ctx context.Context, user *model.User, token string) error {
	link := s.cfg.PublicBaseURL + "/reset-password?token=" + url.QueryEscape(token)
	return s.render(ctx, user, "Reset your password", resetTemplate, link, s.cfg.ResetTokenExpiry.String())
}

func (s *EmailService) render(ctx context.Context, user *model.User, subject string, tpl *template.Template, link, expiry string) error {
	name := user.Username
	if user.FullName != nil && *user.FullName != "" {
		name = *user.FullName
	}

	var body bytes.Buffer
	if err := tpl.Execute(&body, map[string]string{"Name": name, "Link": link, "Expiry": expiry}); err != nil {
		return fmt.Errorf("render %s: %w", tpl.Name(), err)
	}
	return s.Enqueue(ctx, model.EmailJob{To: user.Email, Subject: subject, HTMLBody: body.String()})
}

// Enqueue pushes a job onto the email queue.
func (s *EmailService) Enqueue(ctx context.Context, job model.EmailJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.EmailQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	s.log.Debug().Str("to", job.To).Str("subject", job.Subject).Msg("Email queued")
	return nil
}
