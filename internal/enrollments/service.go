// Package enrollments implements participant registration for events.
package enrollments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrAlreadyEnrolled    = errors.New("participant already enrolled in event")
	ErrCapacityExceeded   = errors.New("event capacity reached")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrNotEnrollmentOwner = errors.New("enrollment belongs to another participant")
)

// Realtime event names sent to the owning organizer's dashboard feed.
const (
	EventEnrollmentCreated = "enrollment_created"
	EventEnrollmentRemoved = "enrollment_removed"
)

const defaultNotifyTimeout = 5 * time.Second

// Notifier delivers the enrollment confirmation to the participant.
type Notifier interface {
	EnrollmentConfirmed(ctx context.Context, enrollment *models.Enrollment, event *models.Event, participant *models.Participant, recipient string) error
}

// Publisher fans enrollment changes out to subscribers of an event.
type Publisher interface {
	PublishToEvent(eventID int64, event string, payload interface{})
}

// Change is the payload published for enrollment_created and enrollment_removed.
type Change struct {
	EnrollmentID  int64     `json:"enrollment_id"`
	EventID       int64     `json:"event_id"`
	ParticipantID int64     `json:"participant_id"`
	At            time.Time `json:"at"`
}

// Service runs the enrollment workflow against the store.
type Service struct {
	store         storage.Store
	notifier      Notifier
	publisher     Publisher
	serializable  bool
	strictOwner   bool
	notifyTimeout time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSerializable runs the eligibility checks and insert in one serializable transaction.
func WithSerializable() Option {
	return func(s *Service) { s.serializable = true }
}

// WithOwnershipCheck restricts Unenroll to the participant that owns the enrollment.
func WithOwnershipCheck() Option {
	return func(s *Service) { s.strictOwner = true }
}

// WithNotifier sets the confirmation notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithPublisher sets the realtime publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the enrollment timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an enrollment service.
func NewService(store storage.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:         store,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enroll registers the viewer's participant profile in the event. Checks run in order:
// authentication, participant profile, event existence, duplicate, capacity.
// The confirmation is sent after the enrollment is stored; its failure is only logged.
func (s *Service) Enroll(ctx context.Context, v identity.Viewer, eventID int64) (*models.Enrollment, error) {
	if err := identity.Check(v, identity.RequireParticipant); err != nil {
		return nil, err
	}
	participant := v.Participant

	var (
		event      *models.Event
		enrollment *models.Enrollment
	)
	admit := func(tx storage.Store) error {
		var err error
		event, err = tx.GetEvent(ctx, eventID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}
		exists, err := tx.EnrollmentExists(ctx, eventID, participant.ID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if exists {
			return ErrAlreadyEnrolled
		}
		count, err := tx.CountEnrollments(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count enrollments: %w", err)
		}
		if count >= event.CapacityMax {
			return ErrCapacityExceeded
		}
		en := &models.Enrollment{EventID: eventID, ParticipantID: participant.ID, CreatedAt: s.now()}
		err = tx.CreateEnrollment(ctx, en)
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ErrAlreadyEnrolled
		}
		if err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}
		enrollment = en
		return nil
	}

	var err error
	if s.serializable {
		err = s.store.InTx(ctx, true, admit)
	} else {
		err = admit(s.store)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("participant enrolled",
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int64("event_id", eventID),
		zap.Int64("participant_id", participant.ID),
	)
	s.notify(ctx, enrollment, event, participant, v.Email)
	s.publish(EventEnrollmentCreated, enrollment)
	return enrollment, nil
}

func (s *Service) notify(ctx context.Context, en *models.Enrollment, e *models.Event, p *models.Participant, recipient string) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.EnrollmentConfirmed(nctx, en, e, p, recipient); err != nil {
		s.logger.Warn("enrollment confirmation not delivered",
			zap.Int64("event_id", e.ID),
			zap.Int64("participant_id", p.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) publish(event string, en *models.Enrollment) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishToEvent(en.EventID, event, Change{
		EnrollmentID:  en.ID,
		EventID:       en.EventID,
		ParticipantID: en.ParticipantID,
		At:            s.now(),
	})
}

// Unenroll deletes an enrollment. Any participant may remove any enrollment unless
// the service was built WithOwnershipCheck.
func (s *Service) Unenroll(ctx context.Context, v identity.Viewer, enrollmentID int64) error {
	if err := identity.Check(v, identity.RequireParticipant); err != nil {
		return err
	}
	en, err := s.store.GetEnrollment(ctx, enrollmentID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrEnrollmentNotFound
	}
	if err != nil {
		return fmt.Errorf("load enrollment: %w", err)
	}
	if s.strictOwner && en.ParticipantID != v.Participant.ID {
		return ErrNotEnrollmentOwner
	}
	err = s.store.DeleteEnrollment(ctx, enrollmentID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrEnrollmentNotFound
	}
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	s.logger.Info("enrollment removed",
		zap.Int64("enrollment_id", en.ID),
		zap.Int64("event_id", en.EventID),
		zap.Int64("removed_by", v.Participant.ID),
	)
	s.publish(EventEnrollmentRemoved, en)
	return nil
}

// ParticipantHistory returns the viewer's enrollments, newest first.
func (s *Service) ParticipantHistory(ctx context.Context, v identity.Viewer) ([]models.EnrollmentDetail, error) {
	if err := identity.Check(v, identity.RequireParticipant); err != nil {
		return nil, err
	}
	return s.store.ListEnrollmentsByParticipant(ctx, v.Participant.ID)
}

// DashboardEvent is an organizer event with its seat usage.
type DashboardEvent struct {
	models.Event
	Enrolled          int `json:"enrolled"`
	RemainingCapacity int `json:"remaining_capacity"`
}

// Dashboard is the organizer's registrant overview.
type Dashboard struct {
	Enrollments []models.EnrollmentDetail `json:"enrollments"`
	Events      []DashboardEvent          `json:"events"`
}

// Dashboard lists every enrollment on the viewer's events, newest first, and the
// events themselves, latest scheduled first.
func (s *Service) Dashboard(ctx context.Context, v identity.Viewer) (*Dashboard, error) {
	if err := identity.Check(v, identity.RequireOrganizer); err != nil {
		return nil, err
	}
	orgID := v.Organizer.ID
	enrollments, err := s.store.ListEnrollmentsByOrganizer(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	events, err := s.store.ListEvents(ctx, storage.EventQuery{OrganizerID: &orgID, Order: storage.OrderByScheduledDesc})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	counts, err := s.store.CountEnrollmentsByEvent(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	d := &Dashboard{
		Enrollments: make([]models.EnrollmentDetail, 0, len(enrollments)),
		Events:      make([]DashboardEvent, 0, len(events)),
	}
	d.Enrollments = append(d.Enrollments, enrollments...)
	for _, e := range events {
		n := counts[e.ID]
		d.Events = append(d.Events, DashboardEvent{Event: e, Enrolled: n, RemainingCapacity: e.CapacityMax - n})
	}
	return d, nil
}
