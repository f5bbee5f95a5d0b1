package events

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/response"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/storage"
)

const dateLayout = "2006-01-02"

// scheduledLayouts are accepted for scheduled_at in multipart forms, most precise first.
var scheduledLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// BannerOpener streams stored banner images.
type BannerOpener interface {
	OpenBanner(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Handler handles event HTTP endpoints.
type Handler struct {
	lister  *Lister
	manager *Manager
	opener  BannerOpener
	loc     *time.Location
	logger  *zap.Logger
}

// NewHandler creates an event handler. opener may be nil when banner storage is disabled.
func NewHandler(lister *Lister, manager *Manager, opener BannerOpener, loc *time.Location, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{lister: lister, manager: manager, opener: opener, loc: loc, logger: logger}
}

func (h *Handler) parseDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := time.ParseInLocation(dateLayout, raw, h.loc)
	if err != nil {
		response.BadRequest(c, name+" must be YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

// List handles GET /events?q=&date=&date_from=&date_to=.
func (h *Handler) List(c *gin.Context) {
	f := Filter{Query: c.Query("q")}
	var ok bool
	if f.Date, ok = h.parseDate(c, "date"); !ok {
		return
	}
	if f.From, ok = h.parseDate(c, "date_from"); !ok {
		return
	}
	if f.To, ok = h.parseDate(c, "date_to"); !ok {
		return
	}
	listing, err := h.lister.List(c.Request.Context(), f, identity.FromContext(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, listing)
}

func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return 0, false
	}
	return id, true
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.lister.Get(c.Request.Context(), id, identity.FromContext(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, e)
}

// bindInput reads event fields from JSON or a multipart form with an optional "banner" file.
// The returned cleanup closes the uploaded file.
func (h *Handler) bindInput(c *gin.Context) (Input, *Banner, func(), bool) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var in Input
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return in, nil, noop, false
		}
		return in, nil, noop, true
	}

	var in Input
	if v, ok := c.GetPostForm("title"); ok {
		in.Title = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = &v
	}
	if v, ok := c.GetPostForm("location"); ok {
		in.Location = &v
	}
	if v, ok := c.GetPostForm("capacity_max"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			response.BadRequest(c, "capacity_max must be an integer")
			return in, nil, noop, false
		}
		in.CapacityMax = &n
	}
	if v, ok := c.GetPostForm("scheduled_at"); ok {
		t, err := h.parseScheduled(v)
		if err != nil {
			response.BadRequest(c, "scheduled_at must be an ISO 8601 timestamp")
			return in, nil, noop, false
		}
		in.ScheduledAt = &t
	}

	file, err := c.FormFile("banner")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, noop, true
	}
	if err != nil {
		response.BadRequest(c, "invalid banner upload")
		return in, nil, noop, false
	}
	if file.Size > storage.MaxBannerSize {
		response.PayloadTooLarge(c, "banner exceeds 5MB limit")
		return in, nil, noop, false
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidateBannerType(contentType, file.Filename) {
		response.UnsupportedMediaType(c, "banner must be a jpg, png, webp or gif image")
		return in, nil, noop, false
	}
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded banner failed", zap.Error(err))
		response.Internal(c, "failed to read banner")
		return in, nil, noop, false
	}
	b := &Banner{Filename: file.Filename, ContentType: contentType, Size: file.Size, Body: rc}
	return in, b, func() { _ = rc.Close() }, true
}

func (h *Handler) parseScheduled(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range scheduledLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, h.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	in, banner, done, ok := h.bindInput(c)
	defer done()
	if !ok {
		return
	}
	e, err := h.manager.Create(c.Request.Context(), identity.FromContext(c.Request.Context()), in, banner)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, e)
}

// Update handles PATCH /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	in, banner, done, ok := h.bindInput(c)
	defer done()
	if !ok {
		return
	}
	e, err := h.manager.Update(c.Request.Context(), identity.FromContext(c.Request.Context()), id, in, banner)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.manager.Delete(c.Request.Context(), identity.FromContext(c.Request.Context()), id); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// EmailLogs handles GET /events/:id/emails.
func (h *Handler) EmailLogs(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	logs, err := h.manager.EmailLogs(c.Request.Context(), identity.FromContext(c.Request.Context()), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, logs)
}

// Banner handles GET /events/:id/banner by streaming the image from storage.
func (h *Handler) Banner(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	key, err := h.manager.BannerKey(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if key == "" {
		response.NotFound(c, "event has no banner")
		return
	}
	if h.opener == nil {
		response.ServiceUnavailable(c, "storage unavailable")
		return
	}
	body, contentType, err := h.opener.OpenBanner(c.Request.Context(), key)
	if err != nil {
		h.logger.Warn("banner get failed", zap.Error(err), zap.String("key", key))
		response.NotFound(c, "banner not found")
		return
	}
	defer body.Close()
	if contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, identity.ErrNotAnOrganizer), errors.Is(err, identity.ErrNotEventOwner):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrInvalidEvent):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("event request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "internal error")
	}
}
