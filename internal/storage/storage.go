// Package storage defines persistence contracts shared by the Postgres and SQLite backends.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness constraint rejected the write.
	ErrAlreadyExists = errors.New("record already exists")
)

// EventOrder selects the ordering of ListEvents results.
type EventOrder int

const (
	// OrderByID lists events by identity ascending (creation order).
	OrderByID EventOrder = iota
	// OrderByScheduledDesc lists the latest scheduled events first.
	OrderByScheduledDesc
)

// EventQuery filters ListEvents. Zero fields are ignored; set fields combine with AND.
type EventQuery struct {
	// Text matches title, description or location case-insensitively as a substring.
	Text string
	// From and To are inclusive bounds on the scheduled timestamp.
	From *time.Time
	To   *time.Time
	// OrganizerID restricts to events owned by one organizer.
	OrganizerID *int64
	Order       EventOrder
}

// AccountStore persists login accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	// GetAccountByLogin resolves an account by username or email.
	GetAccountByLogin(ctx context.Context, login string) (*models.Account, error)
	UpdateAccount(ctx context.Context, a *models.Account) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// DeleteAccount removes the account and cascades to its profiles.
	DeleteAccount(ctx context.Context, id int64) error
}

// ProfileStore persists participant and organizer profiles.
type ProfileStore interface {
	CreateParticipant(ctx context.Context, p *models.Participant) error
	GetParticipant(ctx context.Context, id int64) (*models.Participant, error)
	GetParticipantByAccount(ctx context.Context, accountID int64) (*models.Participant, error)
	UpdateParticipant(ctx context.Context, p *models.Participant) error
	CreateOrganizer(ctx context.Context, o *models.Organizer) error
	GetOrganizer(ctx context.Context, id int64) (*models.Organizer, error)
	GetOrganizerByAccount(ctx context.Context, accountID int64) (*models.Organizer, error)
	UpdateOrganizer(ctx context.Context, o *models.Organizer) error
}

// EventStore persists events.
type EventStore interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	// DeleteEvent removes the event and cascades to its enrollments.
	DeleteEvent(ctx context.Context, id int64) error
	ListEvents(ctx context.Context, q EventQuery) ([]models.Event, error)
}

// EnrollmentStore persists enrollments.
type EnrollmentStore interface {
	// CreateEnrollment returns ErrAlreadyExists when the (event, participant) pair is taken.
	CreateEnrollment(ctx context.Context, e *models.Enrollment) error
	GetEnrollment(ctx context.Context, id int64) (*models.Enrollment, error)
	DeleteEnrollment(ctx context.Context, id int64) error
	EnrollmentExists(ctx context.Context, eventID, participantID int64) (bool, error)
	CountEnrollments(ctx context.Context, eventID int64) (int, error)
	// CountEnrollmentsByEvent returns enrollment counts keyed by event id; events without
	// enrollments are absent from the map.
	CountEnrollmentsByEvent(ctx context.Context, eventIDs []int64) (map[int64]int, error)
	// ParticipantEnrollments maps event id to enrollment id for the participant's
	// enrollments among eventIDs.
	ParticipantEnrollments(ctx context.Context, participantID int64, eventIDs []int64) (map[int64]int64, error)
	// ListEnrollmentsByParticipant returns the participant's enrollments, newest first.
	ListEnrollmentsByParticipant(ctx context.Context, participantID int64) ([]models.EnrollmentDetail, error)
	// ListEnrollmentsByOrganizer returns enrollments on the organizer's events, newest first.
	ListEnrollmentsByOrganizer(ctx context.Context, organizerID int64) ([]models.EnrollmentDetail, error)
}

// EmailLogStore persists confirmation email delivery records.
type EmailLogStore interface {
	CreateEmailLog(ctx context.Context, l *models.EmailLog) error
	UpdateEmailLogStatus(ctx context.Context, id int64, status, errorMessage string) error
	ListEmailLogsByEvent(ctx context.Context, eventID int64) ([]models.EmailLog, error)
}

// Store is the full persistence surface.
type Store interface {
	AccountStore
	ProfileStore
	EventStore
	EnrollmentStore
	EmailLogStore

	// InTx runs fn against a transaction-scoped Store. serializable requests the strongest
	// isolation the backend offers. Calling InTx on a transaction-scoped Store runs fn in
	// the enclosing transaction.
	InTx(ctx context.Context, serializable bool, fn func(tx Store) error) error
	Close() error
}

// LikePattern builds a substring pattern for LIKE ... ESCAPE '\' with wildcards in s escaped.
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
