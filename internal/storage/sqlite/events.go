package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

const eventColumns = `id, organizer_id, title, description, scheduled_at, location, capacity_max, banner_key, banner_url, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	var scheduled, created, updated int64
	if err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &scheduled, &e.Location,
		&e.CapacityMax, &e.BannerKey, &e.BannerURL, &created, &updated); err != nil {
		return nil, notFound(err)
	}
	e.ScheduledAt = fromMillis(scheduled)
	e.CreatedAt = fromMillis(created)
	e.UpdatedAt = fromMillis(updated)
	return &e, nil
}

// CreateEvent inserts a new event.
func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	now := fromMillis(toMillis(time.Now()))
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (organizer_id, title, description, scheduled_at, location, capacity_max, banner_key, banner_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OrganizerID, e.Title, e.Description, toMillis(e.ScheduledAt), e.Location, e.CapacityMax,
		e.BannerKey, e.BannerURL, toMillis(now), toMillis(now))
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create event id: %w", err)
	}
	e.ID = id
	e.ScheduledAt = fromMillis(toMillis(e.ScheduledAt))
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetEvent returns an event by ID.
func (s *Store) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

// UpdateEvent updates all mutable event fields.
func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	now := fromMillis(toMillis(time.Now()))
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, scheduled_at = ?, location = ?, capacity_max = ?,
		 banner_key = ?, banner_url = ?, updated_at = ? WHERE id = ?`,
		e.Title, e.Description, toMillis(e.ScheduledAt), e.Location, e.CapacityMax,
		e.BannerKey, e.BannerURL, toMillis(now), e.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

// DeleteEvent removes an event; its enrollments cascade.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(res)
}

// ListEvents returns events matching q.
func (s *Store) ListEvents(ctx context.Context, q storage.EventQuery) ([]models.Event, error) {
	var conds []string
	var args []any
	if q.Text != "" {
		p := storage.LikePattern(q.Text)
		conds = append(conds, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR location LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p)
	}
	if q.From != nil {
		conds = append(conds, `scheduled_at >= ?`)
		args = append(args, toMillis(*q.From))
	}
	if q.To != nil {
		conds = append(conds, `scheduled_at <= ?`)
		args = append(args, toMillis(*q.To))
	}
	if q.OrganizerID != nil {
		conds = append(conds, `organizer_id = ?`)
		args = append(args, *q.OrganizerID)
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

	rows, err := s.db.QueryContext(ctx, query, args...)
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
