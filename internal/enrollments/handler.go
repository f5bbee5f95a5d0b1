package enrollments

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/response"
)

// Handler handles enrollment HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an enrollment handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Enroll handles POST /events/:id/enroll.
func (h *Handler) Enroll(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	en, err := h.svc.Enroll(c.Request.Context(), identity.FromContext(c.Request.Context()), eventID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, en)
}

// Unenroll handles DELETE /enrollments/:id.
func (h *Handler) Unenroll(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid enrollment id")
		return
	}
	if err := h.svc.Unenroll(c.Request.Context(), identity.FromContext(c.Request.Context()), id); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// History handles GET /me/enrollments.
func (h *Handler) History(c *gin.Context) {
	list, err := h.svc.ParticipantHistory(c.Request.Context(), identity.FromContext(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, list)
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context(), identity.FromContext(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, identity.ErrNotAParticipant),
		errors.Is(err, identity.ErrNotAnOrganizer),
		errors.Is(err, ErrNotEnrollmentOwner):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrEnrollmentNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrAlreadyEnrolled), errors.Is(err, ErrCapacityExceeded):
		response.Conflict(c, err.Error())
	default:
		h.logger.Error("enrollment request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "internal error")
	}
}
