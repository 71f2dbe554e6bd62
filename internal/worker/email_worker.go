package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/mailer"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	EmailPollTimeout = 1 * time.Second
	EmailMaxAttempts = 3
	EmailSendTimeout = 30 * time.Second
)

// EmailWorker drains the email queue and hands each job to the mailer.
type EmailWorker struct {
	rdb    *redis.Client
	mailer mailer.Mailer
	log    zerolog.Logger
}

func NewEmailWorker(rdb *redis.Client, m mailer.Mailer, log zerolog.Logger) *EmailWorker {
	return &EmailWorker{
		rdb:    rdb,
		mailer: m,
		log:    log.With().Str("component", "email_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *EmailWorker) Start(ctx context.Context) {
	w.log.Info().Msg("EmailWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("EmailWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, EmailPollTimeout, config.WorkerKey.EmailQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			retry := w.process(ctx, []byte(item[1]))
			if retry == nil {
				continue
			}
			// Re-queue at the tail so other jobs are not starved.
			if err := w.rdb.RPush(context.WithoutCancel(ctx), config.WorkerKey.EmailQueue, retry).Err(); err != nil {
				w.log.Error().Err(err).Msg("Email re-queue failed, job dropped")
			}
		}
	}
}

// process sends one raw job. It returns the payload to re-queue, or nil when
// the job is done or dropped.
func (w *EmailWorker) process(ctx context.Context, raw []byte) []byte {
	var job model.EmailJob
	if err := json.Unmarshal(raw, &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid email job payload")
		return nil
	}
	job.Attempt++

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), EmailSendTimeout)
	defer cancel()

	err := w.mailer.Send(sendCtx, mailer.Message{To: job.To, Subject: job.Subject, HTMLBody: job.HTMLBody})
	if err == nil {
		w.log.Debug().Str("to", job.To).Int("attempt", job.Attempt).Msg("Email sent")
		return nil
	}

	if job.Attempt >= EmailMaxAttempts {
		w.log.Error().Err(err).
			Str("to", job.To).
			Str("subject", job.Subject).
			Int("attempt", job.Attempt).
			Msg("Email delivery failed, giving up")
		return nil
	}

	w.log.Warn().Err(err).Str("to", job.To).Int("attempt", job.Attempt).Msg("Email delivery failed, retrying")
	next, _ := json.Marshal(job)
	return next
}
