// Package identity resolves who is making a request and which profiles they hold.
package identity

import (
	"context"
	"errors"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

// Viewer is the request-scoped identity. The zero value is anonymous.
type Viewer struct {
	AccountID   int64
	Email       string
	Organizer   *models.Organizer
	Participant *models.Participant
}

// Anonymous returns the unauthenticated viewer.
func Anonymous() Viewer { return Viewer{} }

// Authenticated reports whether the viewer is bound to an account.
func (v Viewer) Authenticated() bool { return v.AccountID != 0 }

// IsOrganizer reports whether the viewer holds an organizer profile.
func (v Viewer) IsOrganizer() bool { return v.Organizer != nil }

// IsParticipant reports whether the viewer holds a participant profile.
func (v Viewer) IsParticipant() bool { return v.Participant != nil }

type viewerKey struct{}

// WithViewer returns a copy of ctx carrying v.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// FromContext returns the viewer stored in ctx, or the anonymous viewer.
func FromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerKey{}).(Viewer)
	return v
}

// ProfileLookup is the subset of the store the resolver needs.
type ProfileLookup interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	GetParticipantByAccount(ctx context.Context, accountID int64) (*models.Participant, error)
	GetOrganizerByAccount(ctx context.Context, accountID int64) (*models.Organizer, error)
}

// Resolver builds a Viewer from an account id.
type Resolver struct {
	store ProfileLookup
}

// NewResolver creates a resolver over the profile store.
func NewResolver(store ProfileLookup) *Resolver {
	return &Resolver{store: store}
}

// Resolve loads the account and both optional profiles. A missing account yields
// ErrUnauthenticated, e.g. when a token outlives its account.
func (r *Resolver) Resolve(ctx context.Context, accountID int64) (Viewer, error) {
	acc, err := r.store.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return Anonymous(), ErrUnauthenticated
	}
	if err != nil {
		return Anonymous(), err
	}
	v := Viewer{AccountID: acc.ID, Email: acc.Email}

	p, err := r.store.GetParticipantByAccount(ctx, accountID)
	switch {
	case err == nil:
		v.Participant = p
	case !errors.Is(err, storage.ErrNotFound):
		return Anonymous(), err
	}

	o, err := r.store.GetOrganizerByAccount(ctx, accountID)
	switch {
	case err == nil:
		v.Organizer = o
	case !errors.Is(err, storage.ErrNotFound):
		return Anonymous(), err
	}
	return v, nil
}
