package realtime

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/RaphaBane/Gereventos-SENAC/internal/auth"
	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/response"
)

// ErrEventNotFound is returned when the watched event does not exist.
var ErrEventNotFound = errors.New("event not found")

// TokenValidator parses bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// ViewerResolver loads the profiles behind an account.
type ViewerResolver interface {
	Resolve(ctx context.Context, accountID int64) (identity.Viewer, error)
}

// EventGetter loads an event by id.
type EventGetter interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
}

// OwnerAuthorizer admits only the organizer who owns the event.
type OwnerAuthorizer struct {
	tokens   TokenValidator
	resolver ViewerResolver
	events   EventGetter
}

// NewOwnerAuthorizer creates an authorizer for the live feed.
func NewOwnerAuthorizer(tokens TokenValidator, resolver ViewerResolver, events EventGetter) *OwnerAuthorizer {
	return &OwnerAuthorizer{tokens: tokens, resolver: resolver, events: events}
}

// Authorize returns the account id behind token when it owns eventID.
func (a *OwnerAuthorizer) Authorize(ctx context.Context, token string, eventID int64) (int64, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return 0, identity.ErrUnauthenticated
	}
	v, err := a.resolver.Resolve(ctx, claims.AccountID)
	if err != nil {
		return 0, err
	}
	e, err := a.events.GetEvent(ctx, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrEventNotFound
	}
	if err != nil {
		return 0, err
	}
	if err := identity.Check(v, identity.OwnsEvent(e)); err != nil {
		return 0, err
	}
	return v.AccountID, nil
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		response.Unauthorized(c, "invalid token")
	case errors.Is(err, identity.ErrNotAnOrganizer), errors.Is(err, identity.ErrNotEventOwner):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, err.Error())
	default:
		response.Internal(c, "internal error")
	}
}
