package identity

import (
	"errors"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotAParticipant = errors.New("participant profile required")
	ErrNotAnOrganizer  = errors.New("organizer profile required")
	ErrNotEventOwner   = errors.New("event belongs to another organizer")
)

// Guard is a predicate over a viewer. It returns nil to allow.
type Guard func(Viewer) error

// RequireAuthenticated allows any logged-in viewer.
func RequireAuthenticated(v Viewer) error {
	if !v.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireParticipant allows viewers holding a participant profile.
func RequireParticipant(v Viewer) error {
	if err := RequireAuthenticated(v); err != nil {
		return err
	}
	if !v.IsParticipant() {
		return ErrNotAParticipant
	}
	return nil
}

// RequireOrganizer allows viewers holding an organizer profile.
func RequireOrganizer(v Viewer) error {
	if err := RequireAuthenticated(v); err != nil {
		return err
	}
	if !v.IsOrganizer() {
		return ErrNotAnOrganizer
	}
	return nil
}

// OwnsEvent allows only the organizer that owns e.
func OwnsEvent(e *models.Event) Guard {
	return func(v Viewer) error {
		if err := RequireOrganizer(v); err != nil {
			return err
		}
		if v.Organizer.ID != e.OrganizerID {
			return ErrNotEventOwner
		}
		return nil
	}
}

// Check runs guards in order and returns the first failure.
func Check(v Viewer, guards ...Guard) error {
	for _, g := range guards {
		if err := g(v); err != nil {
			return err
		}
	}
	return nil
}
