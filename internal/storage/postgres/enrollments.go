package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

// CreateEnrollment inserts an enrollment. The (event, participant) pair is unique.
func (s *Store) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	const q = `INSERT INTO enrollments (event_id, participant_id, created_at) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := s.db.QueryRow(ctx, q, e.EventID, e.ParticipantID, e.CreatedAt).Scan(&e.ID, &e.CreatedAt)
	if isCode(err, codeUniqueViolation) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// GetEnrollment returns an enrollment by ID.
func (s *Store) GetEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	const q = `SELECT id, event_id, participant_id, created_at FROM enrollments WHERE id = $1`
	var e models.Enrollment
	if err := s.db.QueryRow(ctx, q, id).Scan(&e.ID, &e.EventID, &e.ParticipantID, &e.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// DeleteEnrollment removes an enrollment by ID.
func (s *Store) DeleteEnrollment(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return requireAffected(tag)
}

// EnrollmentExists reports whether the participant is enrolled in the event.
func (s *Store) EnrollmentExists(ctx context.Context, eventID, participantID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE event_id = $1 AND participant_id = $2)`
	var exists bool
	if err := s.db.QueryRow(ctx, q, eventID, participantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("enrollment exists: %w", err)
	}
	return exists, nil
}

// CountEnrollments returns the number of enrollments for an event.
func (s *Store) CountEnrollments(ctx context.Context, eventID int64) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE event_id = $1`, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return n, nil
}

// CountEnrollmentsByEvent returns enrollment counts keyed by event ID.
func (s *Store) CountEnrollmentsByEvent(ctx context.Context, eventIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	rows, err := s.db.Query(ctx, `SELECT event_id, COUNT(*) FROM enrollments WHERE event_id = ANY($1) GROUP BY event_id`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("count enrollments by event: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// ParticipantEnrollments maps event ID to enrollment ID for the participant.
func (s *Store) ParticipantEnrollments(ctx context.Context, participantID int64, eventIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT event_id, id FROM enrollments WHERE participant_id = $1 AND event_id = ANY($2)`, participantID, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("participant enrollments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var eventID, enrollmentID int64
		if err := rows.Scan(&eventID, &enrollmentID); err != nil {
			return nil, err
		}
		out[eventID] = enrollmentID
	}
	return out, rows.Err()
}

const detailQuery = `SELECT en.id, en.event_id, en.participant_id, en.created_at,
	ev.title, ev.location, ev.scheduled_at, p.name, a.email
	FROM enrollments en
	JOIN events ev ON ev.id = en.event_id
	JOIN participants p ON p.id = en.participant_id
	JOIN accounts a ON a.id = p.account_id`

func (s *Store) listDetails(ctx context.Context, where string, arg int64) ([]models.EnrollmentDetail, error) {
	rows, err := s.db.Query(ctx, detailQuery+` WHERE `+where+` ORDER BY en.created_at DESC, en.id DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()
	var list []models.EnrollmentDetail
	for rows.Next() {
		var d models.EnrollmentDetail
		if err := rows.Scan(&d.ID, &d.EventID, &d.ParticipantID, &d.CreatedAt,
			&d.EventTitle, &d.EventLocation, &d.EventScheduledAt, &d.ParticipantName, &d.ParticipantEmail); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// ListEnrollmentsByParticipant returns the participant's enrollments, newest first.
func (s *Store) ListEnrollmentsByParticipant(ctx context.Context, participantID int64) ([]models.EnrollmentDetail, error) {
	return s.listDetails(ctx, `en.participant_id = $1`, participantID)
}

// ListEnrollmentsByOrganizer returns enrollments on the organizer's events, newest first.
func (s *Store) ListEnrollmentsByOrganizer(ctx context.Context, organizerID int64) ([]models.EnrollmentDetail, error) {
	return s.listDetails(ctx, `ev.organizer_id = $1`, organizerID)
}
