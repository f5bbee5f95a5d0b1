package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

const eventColumns = `id, organizer_id, title, description, scheduled_at, location, capacity_max, banner_key, banner_url, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	if err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.ScheduledAt, &e.Location,
		&e.CapacityMax, &e.BannerKey, &e.BannerURL, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// CreateEvent inserts a new event.
func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (organizer_id, title, description, scheduled_at, location, capacity_max, banner_key, banner_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := s.db.QueryRow(ctx, q, e.OrganizerID, e.Title, e.Description, e.ScheduledAt, e.Location, e.CapacityMax, e.BannerKey, e.BannerURL).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetEvent returns an event by ID.
func (s *Store) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(s.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// UpdateEvent updates all mutable event fields.
func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET title = $1, description = $2, scheduled_at = $3, location = $4, capacity_max = $5,
		banner_key = $6, banner_url = $7, updated_at = NOW()
		WHERE id = $8 RETURNING updated_at`
	err := s.db.QueryRow(ctx, q, e.Title, e.Description, e.ScheduledAt, e.Location, e.CapacityMax, e.BannerKey, e.BannerURL, e.ID).
		Scan(&e.UpdatedAt)
	if err != nil {
		return notFound(err)
	}
	return nil
}

// DeleteEvent removes an event; its enrollments cascade.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(tag)
}

// ListEvents returns events matching q.
func (s *Store) ListEvents(ctx context.Context, q storage.EventQuery) ([]models.Event, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.Text != "" {
		p := arg(storage.LikePattern(q.Text))
		conds = append(conds, fmt.Sprintf(`(title ILIKE %[1]s ESCAPE '\' OR description ILIKE %[1]s ESCAPE '\' OR location ILIKE %[1]s ESCAPE '\')`, p))
	}
	if q.From != nil {
		conds = append(conds, `scheduled_at >= `+arg(*q.From))
	}
	if q.To != nil {
		conds = append(conds, `scheduled_at <= `+arg(*q.To))
	}
	if q.OrganizerID != nil {
		conds = append(conds, `organizer_id = `+arg(*q.OrganizerID))
	}
	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	switch q.Order {
	case storage.OrderByScheduledDesc:
		query += ` ORDER BY scheduled_at DESC, id DESC`
	default:
		query += ` ORDER BY id ASC`
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}
