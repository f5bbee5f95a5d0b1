package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/queue"
)

// EmailLogWriter records delivery attempts.
type EmailLogWriter interface {
	CreateEmailLog(ctx context.Context, l *models.EmailLog) error
	UpdateEmailLogStatus(ctx context.Context, id int64, status, errorMessage string) error
}

// EmailEnqueuer hands rendered emails to the worker.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// QueueNotifier records a pending email log and enqueues the confirmation for the worker.
type QueueNotifier struct {
	renderer *Renderer
	logs     EmailLogWriter
	queue    EmailEnqueuer
	logger   *zap.Logger
}

// NewQueueNotifier creates a queue-backed notifier.
func NewQueueNotifier(renderer *Renderer, logs EmailLogWriter, q EmailEnqueuer, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{renderer: renderer, logs: logs, queue: q, logger: logger}
}

// EnrollmentConfirmed renders the confirmation and enqueues it. If enqueueing fails the log
// is marked failed and the error returned.
func (n *QueueNotifier) EnrollmentConfirmed(ctx context.Context, enrollment *models.Enrollment, event *models.Event, participant *models.Participant, recipient string) error {
	msg, err := n.renderer.EnrollmentConfirmation(event, participant)
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	eventID, enrollmentID := event.ID, enrollment.ID
	entry := &models.EmailLog{
		EventID:        &eventID,
		EnrollmentID:   &enrollmentID,
		EmailType:      models.EmailTypeEnrollmentConfirmation,
		RecipientEmail: recipient,
		Subject:        msg.Subject,
		Status:         models.EmailLogStatusPending,
	}
	if err := n.logs.CreateEmailLog(ctx, entry); err != nil {
		return fmt.Errorf("create email log: %w", err)
	}
	err = n.queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailLogID:     entry.ID,
		EmailType:      entry.EmailType,
		EventID:        eventID,
		EnrollmentID:   enrollmentID,
		RecipientEmail: recipient,
		Subject:        msg.Subject,
		BodyText:       msg.Text,
		BodyHTML:       msg.HTML,
	})
	if err != nil {
		if uerr := n.logs.UpdateEmailLogStatus(ctx, entry.ID, models.EmailLogStatusFailed, err.Error()); uerr != nil {
			n.logger.Warn("mark email log failed", zap.Int64("email_log_id", entry.ID), zap.Error(uerr))
		}
		return fmt.Errorf("enqueue email: %w", err)
	}
	n.logger.Debug("confirmation queued", zap.Int64("email_log_id", entry.ID), zap.Int64("event_id", eventID))
	return nil
}
