package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/storagetest"
)

type fakeBanners struct {
	n       int
	err     error
	content []string
}

func (f *fakeBanners) UploadBanner(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	b, _ := io.ReadAll(body)
	f.content = append(f.content, string(b))
	f.n++
	key := fmt.Sprintf("banners/%d.png", f.n)
	return key, "https://cdn.example/" + key, nil
}

type fakeCleaner struct{ keys []string }

func (f *fakeCleaner) EnqueueBannerCleanup(ctx context.Context, key string) error {
	f.keys = append(f.keys, key)
	return nil
}

func ptr[T any](v T) *T { return &v }

func validInput() Input {
	return Input{
		Title:       ptr("Semana de Tecnologia"),
		Description: ptr("Palestras e oficinas"),
		ScheduledAt: ptr(time.Date(2030, 8, 1, 19, 0, 0, 0, time.UTC)),
		Location:    ptr("Auditório"),
		CapacityMax: ptr(50),
	}
}

func TestCreateRequiresOrganizer(t *testing.T) {
	store := storagetest.Open(t)
	m := NewManager(store, nil, nil, nil)
	ctx := context.Background()

	if _, err := m.Create(ctx, identity.Anonymous(), validInput(), nil); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Fatalf("anonymous: %v", err)
	}
	if _, err := m.Create(ctx, storagetest.Participant(t, store), validInput(), nil); !errors.Is(err, identity.ErrNotAnOrganizer) {
		t.Fatalf("participant: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	m := NewManager(store, nil, nil, nil)

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing title", func(in *Input) { in.Title = nil }},
		{"blank title", func(in *Input) { in.Title = ptr("   ") }},
		{"long title", func(in *Input) { in.Title = ptr(strings.Repeat("a", 101)) }},
		{"missing date", func(in *Input) { in.ScheduledAt = nil }},
		{"negative capacity", func(in *Input) { in.CapacityMax = ptr(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := m.Create(context.Background(), org, in, nil); !errors.Is(err, ErrInvalidEvent) {
				t.Fatalf("got %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestCreateWithBanner(t *testing.T) {
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	banners := &fakeBanners{}
	m := NewManager(store, banners, &fakeCleaner{}, nil)

	e, err := m.Create(context.Background(), org, validInput(), &Banner{Filename: "b.png", Body: strings.NewReader("png")})
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.GetEvent(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BannerKey != "banners/1.png" || got.BannerURL == "" || got.OrganizerID != org.Organizer.ID {
		t.Fatalf("stored = %+v", got)
	}
	if banners.content[0] != "png" {
		t.Fatalf("uploaded %q", banners.content[0])
	}
}

func TestUpdateOwnershipAndBannerReplacement(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	intruder := storagetest.Organizer(t, store)
	cleaner := &fakeCleaner{}
	m := NewManager(store, &fakeBanners{}, cleaner, nil)

	e, err := m.Create(ctx, org, validInput(), &Banner{Filename: "a.png", Body: strings.NewReader("a")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Update(ctx, intruder, e.ID, Input{Title: ptr("hijack")}, nil); !errors.Is(err, identity.ErrNotEventOwner) {
		t.Fatalf("intruder: %v", err)
	}
	if _, err := m.Update(ctx, org, 9999, Input{}, nil); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("missing: %v", err)
	}

	updated, err := m.Update(ctx, org, e.ID, Input{CapacityMax: ptr(10)}, &Banner{Filename: "b.png", Body: strings.NewReader("b")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.CapacityMax != 10 || updated.Title != "Semana de Tecnologia" {
		t.Fatalf("partial update lost fields: %+v", updated)
	}
	if updated.BannerKey != "banners/2.png" {
		t.Fatalf("banner key = %q", updated.BannerKey)
	}
	if len(cleaner.keys) != 1 || cleaner.keys[0] != "banners/1.png" {
		t.Fatalf("cleanup = %v", cleaner.keys)
	}
}

func TestDeleteCascadesAndCleansBanner(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	cleaner := &fakeCleaner{}
	m := NewManager(store, &fakeBanners{}, cleaner, nil)

	e, err := m.Create(ctx, org, validInput(), &Banner{Filename: "a.png", Body: strings.NewReader("a")})
	if err != nil {
		t.Fatal(err)
	}
	p := storagetest.Participant(t, store)
	en := enroll(t, store, p, e)

	if err := m.Delete(ctx, p, e.ID); !errors.Is(err, identity.ErrNotAnOrganizer) {
		t.Fatalf("participant delete: %v", err)
	}
	if err := m.Delete(ctx, org, e.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetEnrollment(ctx, en.ID); err == nil {
		t.Fatal("enrollment should cascade")
	}
	if len(cleaner.keys) != 1 || cleaner.keys[0] != e.BannerKey {
		t.Fatalf("cleanup = %v", cleaner.keys)
	}
}

func TestEmailLogsOwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	other := storagetest.Organizer(t, store)
	e := storagetest.Event(t, store, org, models.Event{CapacityMax: 1})
	m := NewManager(store, nil, nil, nil)

	if err := store.CreateEmailLog(ctx, &models.EmailLog{
		EventID:        &e.ID,
		EmailType:      models.EmailTypeEnrollmentConfirmation,
		RecipientEmail: "p@example.com",
	}); err != nil {
		t.Fatal(err)
	}
	logs, err := m.EmailLogs(ctx, org, e.ID)
	if err != nil || len(logs) != 1 || logs[0].Status != models.EmailLogStatusPending {
		t.Fatalf("logs = %+v, %v", logs, err)
	}
	if _, err := m.EmailLogs(ctx, other, e.ID); !errors.Is(err, identity.ErrNotEventOwner) {
		t.Fatalf("other organizer: %v", err)
	}
}
