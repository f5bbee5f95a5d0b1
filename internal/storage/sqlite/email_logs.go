package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
)

// CreateEmailLog inserts a delivery record.
func (s *Store) CreateEmailLog(ctx context.Context, l *models.EmailLog) error {
	if l.Status == "" {
		l.Status = models.EmailLogStatusPending
	}
	created := fromMillis(toMillis(time.Now()))
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO email_logs (event_id, enrollment_id, email_type, recipient_email, subject, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.EventID, l.EnrollmentID, l.EmailType, l.RecipientEmail, l.Subject, l.Status, toMillis(created))
	if err != nil {
		return fmt.Errorf("create email log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create email log id: %w", err)
	}
	l.ID = id
	l.CreatedAt = created
	return nil
}

// UpdateEmailLogStatus records the delivery outcome; sent_at is set when status is sent.
func (s *Store) UpdateEmailLogStatus(ctx context.Context, id int64, status, errorMessage string) error {
	var sentAt sql.NullInt64
	if status == models.EmailLogStatusSent {
		sentAt = sql.NullInt64{Int64: toMillis(time.Now()), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE email_logs SET status = ?, error_message = ?, sent_at = COALESCE(?, sent_at) WHERE id = ?`,
		status, errorMessage, sentAt, id)
	if err != nil {
		return fmt.Errorf("update email log: %w", err)
	}
	return requireAffected(res)
}

// ListEmailLogsByEvent returns an event's email logs, newest first.
func (s *Store) ListEmailLogsByEvent(ctx context.Context, eventID int64) ([]models.EmailLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, enrollment_id, email_type, recipient_email, subject, status, sent_at, error_message, created_at
		 FROM email_logs WHERE event_id = ? ORDER BY created_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		var eventIDCol, enrollmentID, sentAt sql.NullInt64
		var created int64
		if err := rows.Scan(&l.ID, &eventIDCol, &enrollmentID, &l.EmailType, &l.RecipientEmail, &l.Subject,
			&l.Status, &sentAt, &l.ErrorMessage, &created); err != nil {
			return nil, err
		}
		if eventIDCol.Valid {
			l.EventID = &eventIDCol.Int64
		}
		if enrollmentID.Valid {
			l.EnrollmentID = &enrollmentID.Int64
		}
		if sentAt.Valid {
			t := fromMillis(sentAt.Int64)
			l.SentAt = &t
		}
		l.CreatedAt = fromMillis(created)
		list = append(list, l)
	}
	return list, rows.Err()
}
