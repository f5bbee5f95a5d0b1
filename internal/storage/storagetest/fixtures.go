// Package storagetest provides SQLite-backed fixtures for package tests.
package storagetest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/sqlite"
)

var seq atomic.Int64

// Open creates a migrated SQLite store in a temp dir, closed at test cleanup.
func Open(t testing.TB) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "gereventos.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Account inserts an account with a unique username.
func Account(t testing.TB, s *sqlite.Store) *models.Account {
	t.Helper()
	n := seq.Add(1)
	a := &models.Account{
		Username:     fmt.Sprintf("user%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "x",
	}
	if err := s.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

// Participant creates an account with a participant profile and returns its viewer.
func Participant(t testing.TB, s *sqlite.Store) identity.Viewer {
	t.Helper()
	a := Account(t, s)
	p := &models.Participant{AccountID: a.ID, Name: "Participant " + a.Username, Gender: models.GenderOther}
	if err := s.CreateParticipant(context.Background(), p); err != nil {
		t.Fatalf("create participant: %v", err)
	}
	return identity.Viewer{AccountID: a.ID, Email: a.Email, Participant: p}
}

// Organizer creates an account with an organizer profile and returns its viewer.
func Organizer(t testing.TB, s *sqlite.Store) identity.Viewer {
	t.Helper()
	a := Account(t, s)
	o := &models.Organizer{AccountID: a.ID, Name: "Organizer " + a.Username, Gender: models.GenderOther}
	if err := s.CreateOrganizer(context.Background(), o); err != nil {
		t.Fatalf("create organizer: %v", err)
	}
	return identity.Viewer{AccountID: a.ID, Email: a.Email, Organizer: o}
}

// Event inserts an event owned by organizer. Zero fields get defaults.
func Event(t testing.TB, s *sqlite.Store, organizer identity.Viewer, e models.Event) *models.Event {
	t.Helper()
	e.OrganizerID = organizer.Organizer.ID
	if e.Title == "" {
		e.Title = fmt.Sprintf("Evento %d", seq.Add(1))
	}
	if e.ScheduledAt.IsZero() {
		e.ScheduledAt = time.Date(2030, 1, 15, 19, 0, 0, 0, time.UTC)
	}
	if err := s.CreateEvent(context.Background(), &e); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return &e
}
