package profiles

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/auth"
	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/response"
)

// Handler handles signup and profile HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a profile handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// SignupParticipant handles POST /signup/participant.
func (h *Handler) SignupParticipant(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.svc.SignupParticipant(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, out)
}

// SignupOrganizer handles POST /signup/organizer.
func (h *Handler) SignupOrganizer(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.svc.SignupOrganizer(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, out)
}

// GetParticipant handles GET /profile/participant.
func (h *Handler) GetParticipant(c *gin.Context) {
	out, err := h.svc.Participant(c.Request.Context(), identity.FromContext(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, out)
}

// GetOrganizer handles GET /profile/organizer.
func (h *Handler) GetOrganizer(c *gin.Context) {
	out, err := h.svc.Organizer(c.Request.Context(), identity.FromContext(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, out)
}

// UpdateParticipant handles PATCH /profile/participant.
func (h *Handler) UpdateParticipant(c *gin.Context) {
	var req Update
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.svc.UpdateParticipant(c.Request.Context(), identity.FromContext(c.Request.Context()), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, out)
}

// UpdateOrganizer handles PATCH /profile/organizer.
func (h *Handler) UpdateOrganizer(c *gin.Context) {
	var req Update
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.svc.UpdateOrganizer(c.Request.Context(), identity.FromContext(c.Request.Context()), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, out)
}

// DeleteParticipant handles DELETE /profile/participant.
func (h *Handler) DeleteParticipant(c *gin.Context) {
	if err := h.svc.DeleteAccount(c.Request.Context(), identity.FromContext(c.Request.Context()), identity.RequireParticipant); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteOrganizer handles DELETE /profile/organizer.
func (h *Handler) DeleteOrganizer(c *gin.Context) {
	if err := h.svc.DeleteAccount(c.Request.Context(), identity.FromContext(c.Request.Context()), identity.RequireOrganizer); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, identity.ErrNotAParticipant), errors.Is(err, identity.ErrNotAnOrganizer):
		response.Forbidden(c, err.Error())
	case errors.Is(err, auth.ErrUsernameTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidProfile), errors.Is(err, auth.ErrInvalidAccount), errors.Is(err, auth.ErrWeakPassword):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("profile request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "internal error")
	}
}
