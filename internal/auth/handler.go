package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/response"
)

// LoginRequest is the body for POST /auth/login. Login accepts a username or an email.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PasswordRequest is the body for POST /me/password.
type PasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token   string               `json:"token"`
	Account models.AccountPublic `json:"account"`
}

// MeResponse describes the current viewer and its capabilities.
type MeResponse struct {
	Account       models.AccountPublic `json:"account"`
	IsOrganizer   bool                 `json:"is_organizer"`
	IsParticipant bool                 `json:"is_participant"`
	ParticipantID *int64               `json:"participant_id,omitempty"`
	OrganizerID   *int64               `json:"organizer_id,omitempty"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	token, acc, err := h.svc.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, TokenResponse{Token: token, Account: acc.ToPublic()})
}

// Me handles GET /me.
func (h *Handler) Me(c *gin.Context) {
	v := identity.FromContext(c.Request.Context())
	if err := identity.Check(v, identity.RequireAuthenticated); err != nil {
		h.fail(c, err)
		return
	}
	acc, err := h.svc.store.GetAccount(c.Request.Context(), v.AccountID)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := MeResponse{Account: acc.ToPublic(), IsOrganizer: v.IsOrganizer(), IsParticipant: v.IsParticipant()}
	if v.IsParticipant() {
		resp.ParticipantID = &v.Participant.ID
	}
	if v.IsOrganizer() {
		resp.OrganizerID = &v.Organizer.ID
	}
	response.OK(c, resp)
}

// UpdateMe handles PATCH /me.
func (h *Handler) UpdateMe(c *gin.Context) {
	var req AccountUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	acc, err := h.svc.UpdateAccount(c.Request.Context(), identity.FromContext(c.Request.Context()), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, acc.ToPublic())
}

// ChangePassword handles POST /me/password.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	err := h.svc.ChangePassword(c.Request.Context(), identity.FromContext(c.Request.Context()), req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, ErrUsernameTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidAccount), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrWrongPassword):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("auth request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "internal error")
	}
}
