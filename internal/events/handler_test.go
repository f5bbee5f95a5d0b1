package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/sqlite"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/storagetest"
)

func newRouter(store *sqlite.Store, v identity.Viewer, banners BannerStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewLister(store, time.UTC), NewManager(store, banners, &fakeCleaner{}, nil), nil, time.UTC, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(identity.WithViewer(c.Request.Context(), v))
		c.Next()
	})
	r.GET("/events", h.List)
	r.GET("/events/:id", h.Get)
	r.POST("/events", h.Create)
	r.PATCH("/events/:id", h.Update)
	r.DELETE("/events/:id", h.Delete)
	return r
}

type listBody struct {
	Data struct {
		Events   []map[string]any `json:"events"`
		Warnings []Advisory       `json:"warnings"`
	} `json:"data"`
}

func TestHandlerListQueryParams(t *testing.T) {
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	storagetest.Event(t, store, org, models.Event{Title: "Feira", ScheduledAt: time.Date(2030, 2, 1, 10, 0, 0, 0, time.UTC)})
	r := newRouter(store, identity.Anonymous(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?date_from=2030-02-05&date_to=2030-02-01", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body listBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data.Warnings) != 1 || body.Data.Warnings[0].Code != AdvisoryInvalidDateRange {
		t.Fatalf("warnings = %+v", body.Data.Warnings)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?date=2030-02-01&q=feira", nil))
	body = listBody{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data.Events) != 1 {
		t.Fatalf("events = %v", body.Data.Events)
	}
	if _, ok := body.Data.Events[0]["is_enrolled"]; ok {
		t.Fatal("is_enrolled must be absent for anonymous viewers")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?date=01/02/2030", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d", w.Code)
	}
}

func TestHandlerCreateJSON(t *testing.T) {
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)

	body := `{"title":"Hackathon","scheduled_at":"2030-09-10T09:00:00Z","location":"Lab","capacity_max":30}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newRouter(store, org, nil).ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"capacity_max":30}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(store, org, nil).ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newRouter(store, storagetest.Participant(t, store), nil).ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("participant status = %d", w.Code)
	}
}

func TestHandlerCreateMultipartWithBanner(t *testing.T) {
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	banners := &fakeBanners{}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "Mostra")
	_ = mw.WriteField("scheduled_at", "2030-10-01T18:30")
	_ = mw.WriteField("capacity_max", "12")
	fw, _ := mw.CreateFormFile("banner", "capa.png")
	_, _ = fw.Write([]byte("\x89PNG"))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	newRouter(store, org, banners).ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if banners.n != 1 {
		t.Fatalf("uploads = %d", banners.n)
	}
}

func TestHandlerUpdateDeleteOwnership(t *testing.T) {
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	other := storagetest.Organizer(t, store)
	e := storagetest.Event(t, store, org, models.Event{CapacityMax: 5})
	path := fmt.Sprintf("/events/%d", e.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"capacity_max":8}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(store, other, nil).ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("other organizer status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"capacity_max":8}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(store, org, nil).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("owner status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	newRouter(store, org, nil).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, path, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = httptest.NewRecorder()
	newRouter(store, org, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", w.Code)
	}
}
