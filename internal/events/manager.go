package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

// ErrInvalidEvent wraps field validation failures.
var ErrInvalidEvent = errors.New("invalid event")

const (
	maxTitleLen    = 100
	maxLocationLen = 100
)

// Input carries the fields for creating an event, or the changed fields on update (nil = keep).
type Input struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Location    *string    `json:"location"`
	CapacityMax *int       `json:"capacity_max"`
}

// Banner is an uploaded image to attach to an event.
type Banner struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BannerStore uploads banner images.
type BannerStore interface {
	UploadBanner(ctx context.Context, filename, contentType string, body io.Reader, size int64) (key, url string, err error)
}

// BannerCleaner schedules removal of banner objects no event references anymore.
type BannerCleaner interface {
	EnqueueBannerCleanup(ctx context.Context, key string) error
}

// Manager creates, updates and deletes events on behalf of their organizers.
type Manager struct {
	store   storage.Store
	banners BannerStore
	cleaner BannerCleaner
	logger  *zap.Logger
}

// NewManager creates an event manager. banners and cleaner may be nil when uploads are disabled.
func NewManager(store storage.Store, banners BannerStore, cleaner BannerCleaner, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, banners: banners, cleaner: cleaner, logger: logger}
}

func apply(e *models.Event, in Input) {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.ScheduledAt != nil {
		e.ScheduledAt = *in.ScheduledAt
	}
	if in.Location != nil {
		e.Location = strings.TrimSpace(*in.Location)
	}
	if in.CapacityMax != nil {
		e.CapacityMax = *in.CapacityMax
	}
}

func validate(e *models.Event) error {
	switch {
	case e.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	case utf8.RuneCountInString(e.Title) > maxTitleLen:
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidEvent, maxTitleLen)
	case utf8.RuneCountInString(e.Location) > maxLocationLen:
		return fmt.Errorf("%w: location exceeds %d characters", ErrInvalidEvent, maxLocationLen)
	case e.ScheduledAt.IsZero():
		return fmt.Errorf("%w: scheduled_at is required", ErrInvalidEvent)
	case e.CapacityMax < 0:
		return fmt.Errorf("%w: capacity_max must not be negative", ErrInvalidEvent)
	}
	return nil
}

func (m *Manager) upload(ctx context.Context, b *Banner) (key, url string, err error) {
	if m.banners == nil {
		return "", "", errors.New("banner uploads are not configured")
	}
	return m.banners.UploadBanner(ctx, b.Filename, b.ContentType, b.Body, b.Size)
}

func (m *Manager) cleanup(ctx context.Context, key string) {
	if key == "" || m.cleaner == nil {
		return
	}
	if err := m.cleaner.EnqueueBannerCleanup(ctx, key); err != nil {
		m.logger.Warn("banner cleanup not scheduled", zap.String("key", key), zap.Error(err))
	}
}

// Create publishes a new event owned by the viewer's organizer profile.
func (m *Manager) Create(ctx context.Context, v identity.Viewer, in Input, banner *Banner) (*models.Event, error) {
	if err := identity.Check(v, identity.RequireOrganizer); err != nil {
		return nil, err
	}
	e := &models.Event{OrganizerID: v.Organizer.ID}
	apply(e, in)
	if err := validate(e); err != nil {
		return nil, err
	}
	if banner != nil {
		key, url, err := m.upload(ctx, banner)
		if err != nil {
			return nil, err
		}
		e.BannerKey, e.BannerURL = key, url
	}
	if err := m.store.CreateEvent(ctx, e); err != nil {
		m.cleanup(ctx, e.BannerKey)
		return nil, err
	}
	m.logger.Info("event created", zap.Int64("event_id", e.ID), zap.Int64("organizer_id", e.OrganizerID))
	return e, nil
}

func (m *Manager) owned(ctx context.Context, v identity.Viewer, id int64) (*models.Event, error) {
	if err := identity.Check(v, identity.RequireOrganizer); err != nil {
		return nil, err
	}
	e, err := m.store.GetEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := identity.Check(v, identity.OwnsEvent(e)); err != nil {
		return nil, err
	}
	return e, nil
}

// Update changes the fields set in in. A new banner replaces the old one, whose object is
// scheduled for deletion.
func (m *Manager) Update(ctx context.Context, v identity.Viewer, id int64, in Input, banner *Banner) (*models.Event, error) {
	e, err := m.owned(ctx, v, id)
	if err != nil {
		return nil, err
	}
	apply(e, in)
	if err := validate(e); err != nil {
		return nil, err
	}
	oldKey := e.BannerKey
	if banner != nil {
		key, url, err := m.upload(ctx, banner)
		if err != nil {
			return nil, err
		}
		e.BannerKey, e.BannerURL = key, url
	}
	if err := m.store.UpdateEvent(ctx, e); err != nil {
		if banner != nil {
			m.cleanup(ctx, e.BannerKey)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if banner != nil {
		m.cleanup(ctx, oldKey)
	}
	return e, nil
}

// Delete removes the event and its enrollments.
func (m *Manager) Delete(ctx context.Context, v identity.Viewer, id int64) error {
	e, err := m.owned(ctx, v, id)
	if err != nil {
		return err
	}
	if err := m.store.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	m.cleanup(ctx, e.BannerKey)
	m.logger.Info("event deleted", zap.Int64("event_id", id), zap.Int64("organizer_id", e.OrganizerID))
	return nil
}

// EmailLogs returns the confirmation email history of an event to its owner.
func (m *Manager) EmailLogs(ctx context.Context, v identity.Viewer, id int64) ([]models.EmailLog, error) {
	if _, err := m.owned(ctx, v, id); err != nil {
		return nil, err
	}
	return m.store.ListEmailLogsByEvent(ctx, id)
}

// BannerKey returns the stored banner key of an event for proxying.
func (m *Manager) BannerKey(ctx context.Context, id int64) (string, error) {
	e, err := m.store.GetEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrEventNotFound
	}
	if err != nil {
		return "", err
	}
	return e.BannerKey, nil
}
