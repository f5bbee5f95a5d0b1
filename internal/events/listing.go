// Package events lists events with per-viewer enrichment and manages organizer-owned events.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

var ErrEventNotFound = errors.New("event not found")

// AdvisoryInvalidDateRange is reported when date_from falls after date_to.
const AdvisoryInvalidDateRange = "invalid_date_range"

// Advisory is a non-fatal note attached to a listing.
type Advisory struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Filter narrows a listing. Dates are calendar days in the lister's location; only the
// year, month and day of each are used. All set fields combine with AND.
type Filter struct {
	Query string
	Date  *time.Time
	From  *time.Time
	To    *time.Time
}

// ViewerEnrollment is the participant-only part of an enriched event. It is embedded by
// pointer so that for other viewers both keys are absent from the JSON.
type ViewerEnrollment struct {
	IsEnrolled   bool   `json:"is_enrolled"`
	EnrollmentID *int64 `json:"enrollment_id"`
}

// EnrichedEvent is an event plus fields derived for one viewer.
type EnrichedEvent struct {
	models.Event
	RemainingCapacity int  `json:"remaining_capacity"`
	IsOwner           bool `json:"is_owner"`
	*ViewerEnrollment
}

// Listing is the result of List.
type Listing struct {
	Events   []EnrichedEvent `json:"events"`
	Warnings []Advisory      `json:"warnings,omitempty"`
}

// EventReader is the store surface the lister reads.
type EventReader interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context, q storage.EventQuery) ([]models.Event, error)
	CountEnrollmentsByEvent(ctx context.Context, eventIDs []int64) (map[int64]int, error)
	ParticipantEnrollments(ctx context.Context, participantID int64, eventIDs []int64) (map[int64]int64, error)
}

// Lister builds viewer-specific event listings. It never writes.
type Lister struct {
	store EventReader
	loc   *time.Location
}

// NewLister creates a lister. Calendar filters are interpreted in loc (UTC when nil).
func NewLister(store EventReader, loc *time.Location) *Lister {
	if loc == nil {
		loc = time.UTC
	}
	return &Lister{store: store, loc: loc}
}

func (l *Lister) startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, l.loc)
}

func (l *Lister) endOfDay(t time.Time) time.Time {
	return l.startOfDay(t).AddDate(0, 0, 1).Add(-time.Microsecond)
}

// query translates a filter into inclusive timestamp bounds. date_to covers its whole day.
func (l *Lister) query(f Filter) (storage.EventQuery, []Advisory) {
	q := storage.EventQuery{Text: strings.TrimSpace(f.Query), Order: storage.OrderByID}
	var warnings []Advisory
	if f.From != nil {
		from := l.startOfDay(*f.From)
		q.From = &from
	}
	if f.To != nil {
		to := l.endOfDay(*f.To)
		q.To = &to
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		warnings = append(warnings, Advisory{
			Code:    AdvisoryInvalidDateRange,
			Message: "date_from is after date_to",
		})
	}
	if f.Date != nil {
		start, end := l.startOfDay(*f.Date), l.endOfDay(*f.Date)
		if q.From == nil || start.After(*q.From) {
			q.From = &start
		}
		if q.To == nil || end.Before(*q.To) {
			q.To = &end
		}
	}
	return q, warnings
}

// List returns the events matching f ordered by id, enriched for v.
func (l *Lister) List(ctx context.Context, f Filter, v identity.Viewer) (*Listing, error) {
	q, warnings := l.query(f)
	list, err := l.store.ListEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	enriched, err := l.enrich(ctx, list, v)
	if err != nil {
		return nil, err
	}
	return &Listing{Events: enriched, Warnings: warnings}, nil
}

// Get returns one event enriched for v.
func (l *Lister) Get(ctx context.Context, id int64, v identity.Viewer) (*EnrichedEvent, error) {
	e, err := l.store.GetEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	enriched, err := l.enrich(ctx, []models.Event{*e}, v)
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

func (l *Lister) enrich(ctx context.Context, list []models.Event, v identity.Viewer) ([]EnrichedEvent, error) {
	out := make([]EnrichedEvent, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	ids := make([]int64, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}
	counts, err := l.store.CountEnrollmentsByEvent(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	var mine map[int64]int64
	if v.IsParticipant() {
		mine, err = l.store.ParticipantEnrollments(ctx, v.Participant.ID, ids)
		if err != nil {
			return nil, fmt.Errorf("viewer enrollments: %w", err)
		}
	}
	for _, e := range list {
		ee := EnrichedEvent{
			Event:             e,
			RemainingCapacity: e.CapacityMax - counts[e.ID],
			IsOwner:           v.IsOrganizer() && v.Organizer.ID == e.OrganizerID,
		}
		if v.IsParticipant() {
			ve := &ViewerEnrollment{}
			if id, ok := mine[e.ID]; ok {
				ve.IsEnrolled = true
				ve.EnrollmentID = &id
			}
			ee.ViewerEnrollment = ve
		}
		out = append(out, ee)
	}
	return out, nil
}
