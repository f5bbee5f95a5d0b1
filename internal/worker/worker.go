// Package worker processes background jobs from the Redis queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/notify"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/queue"
)

// JobSource is the queue side the runner consumes.
type JobSource interface {
	Dequeue(ctx context.Context, queues ...string) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
}

// Processor executes one job.
type Processor interface {
	Process(ctx context.Context, job *queue.Job) error
}

// DeadLetterHandler is implemented by processors that must record a job giving up.
type DeadLetterHandler interface {
	Dead(ctx context.Context, job *queue.Job, cause error)
}

// Mailer sends a rendered email.
type Mailer interface {
	Send(ctx context.Context, e notify.Email) error
}

// EmailStatusWriter updates delivery status on an email log.
type EmailStatusWriter interface {
	UpdateEmailLogStatus(ctx context.Context, id int64, status, errorMessage string) error
}

// BannerDeleter removes banner objects.
type BannerDeleter interface {
	DeleteBanner(ctx context.Context, key string) error
}

// EmailProcessor delivers confirmation emails and records the outcome on the email log.
type EmailProcessor struct {
	mailer Mailer
	logs   EmailStatusWriter
	logger *zap.Logger
}

// NewEmailProcessor creates an email delivery processor.
func NewEmailProcessor(mailer Mailer, logs EmailStatusWriter, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{mailer: mailer, logs: logs, logger: logger}
}

func decodeEmail(job *queue.Job) (queue.EmailPayload, error) {
	var payload queue.EmailPayload
	if job.Type != queue.JobTypeEmail {
		return payload, fmt.Errorf("unexpected job type: %s", job.Type)
	}
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return payload, fmt.Errorf("unmarshal payload: %w", err)
	}
	return payload, nil
}

// Process sends the email and marks its log sent.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := decodeEmail(job)
	if err != nil {
		return err
	}
	err = p.mailer.Send(ctx, notify.Email{
		To:      payload.RecipientEmail,
		Subject: payload.Subject,
		Text:    payload.BodyText,
		HTML:    payload.BodyHTML,
	})
	if err != nil {
		return err
	}
	if err := p.logs.UpdateEmailLogStatus(ctx, payload.EmailLogID, models.EmailLogStatusSent, ""); err != nil {
		// The message is out; retrying would send it twice.
		p.logger.Error("mark email sent failed", zap.Int64("email_log_id", payload.EmailLogID), zap.Error(err))
	}
	p.logger.Info("confirmation email sent", zap.Int64("email_log_id", payload.EmailLogID), zap.Int64("event_id", payload.EventID))
	return nil
}

// Dead marks the email log failed with the last error.
func (p *EmailProcessor) Dead(ctx context.Context, job *queue.Job, cause error) {
	payload, err := decodeEmail(job)
	if err != nil {
		return
	}
	if err := p.logs.UpdateEmailLogStatus(ctx, payload.EmailLogID, models.EmailLogStatusFailed, cause.Error()); err != nil {
		p.logger.Error("mark email failed", zap.Int64("email_log_id", payload.EmailLogID), zap.Error(err))
	}
}

// BannerProcessor deletes banner objects orphaned by event updates and deletes.
type BannerProcessor struct {
	banners BannerDeleter
	logger  *zap.Logger
}

// NewBannerProcessor creates a banner cleanup processor.
func NewBannerProcessor(banners BannerDeleter, logger *zap.Logger) *BannerProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BannerProcessor{banners: banners, logger: logger}
}

// Process deletes the banner named in the job.
func (p *BannerProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeBannerCleanup {
		return fmt.Errorf("unexpected job type: %s", job.Type)
	}
	var payload queue.BannerCleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Key == "" {
		return nil
	}
	if err := p.banners.DeleteBanner(ctx, payload.Key); err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	p.logger.Info("banner deleted", zap.String("key", payload.Key))
	return nil
}

// Runner dequeues jobs and dispatches them by type.
// Only the lists of job types with a processor are consumed; other jobs stay queued.
type Runner struct {
	source     JobSource
	processors map[queue.JobType]Processor
	queues     []string
	backoff    time.Duration
	logger     *zap.Logger
}

// NewRunner creates a runner over source.
func NewRunner(source JobSource, processors map[queue.JobType]Processor, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	var queues []string
	seen := make(map[string]bool)
	for t := range processors {
		if q := queue.QueueFor(t); !seen[q] {
			seen[q] = true
			queues = append(queues, q)
		}
	}
	sort.Strings(queues)
	return &Runner{source: source, processors: processors, queues: queues, backoff: queue.RetryBackoff, logger: logger}
}

// RunOnce handles at most one job. It reports whether a job was dequeued.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	job, err := r.source.Dequeue(ctx, r.queues...)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	p, ok := r.processors[job.Type]
	if !ok {
		r.logger.Error("no processor for job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return true, nil
	}
	r.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	procErr := p.Process(ctx, job)
	if procErr == nil {
		return true, nil
	}
	r.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(procErr))
	dead, err := r.source.Retry(ctx, job)
	if err != nil {
		r.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(err))
		return true, procErr
	}
	if dead {
		if h, ok := p.(DeadLetterHandler); ok {
			h.Dead(ctx, job, procErr)
		}
	}
	return true, procErr
}

// Run starts the worker loop: dequeue, process, retry on error.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("worker stopping")
			return
		default:
		}

		_, err := r.RunOnce(ctx)
		if err == nil || ctx.Err() != nil {
			continue
		}
		select {
		case <-ctx.Done():
		case <-time.After(r.backoff):
		}
	}
}
