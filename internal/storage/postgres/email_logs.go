package postgres

import (
	"context"
	"fmt"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
)

// CreateEmailLog inserts a delivery record.
func (s *Store) CreateEmailLog(ctx context.Context, l *models.EmailLog) error {
	if l.Status == "" {
		l.Status = models.EmailLogStatusPending
	}
	const q = `INSERT INTO email_logs (event_id, enrollment_id, email_type, recipient_email, subject, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	if err := s.db.QueryRow(ctx, q, l.EventID, l.EnrollmentID, l.EmailType, l.RecipientEmail, l.Subject, l.Status).
		Scan(&l.ID, &l.CreatedAt); err != nil {
		return fmt.Errorf("create email log: %w", err)
	}
	return nil
}

// UpdateEmailLogStatus records the delivery outcome; sent_at is set when status is sent.
func (s *Store) UpdateEmailLogStatus(ctx context.Context, id int64, status, errorMessage string) error {
	const q = `UPDATE email_logs SET status = $1, error_message = $2,
		sent_at = CASE WHEN $1 = 'sent' THEN NOW() ELSE sent_at END
		WHERE id = $3`
	tag, err := s.db.Exec(ctx, q, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("update email log: %w", err)
	}
	return requireAffected(tag)
}

// ListEmailLogsByEvent returns an event's email logs, newest first.
func (s *Store) ListEmailLogsByEvent(ctx context.Context, eventID int64) ([]models.EmailLog, error) {
	const q = `SELECT id, event_id, enrollment_id, email_type, recipient_email, subject, status, sent_at, error_message, created_at
		FROM email_logs
		WHERE event_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := s.db.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		if err := rows.Scan(&el.ID, &el.EventID, &el.EnrollmentID, &el.EmailType, &el.RecipientEmail, &el.Subject,
			&el.Status, &el.SentAt, &el.ErrorMessage, &el.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, el)
	}
	return list, rows.Err()
}
