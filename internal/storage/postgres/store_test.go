package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/database"
)

// openTest connects to POSTGRES_TEST_DSN, migrates and empties the tables.
func openTest(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, 4, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)
	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE email_logs, enrollments, events, participants, organizers, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatal(err)
	}
	return New(pool)
}

func TestEnrollmentLifecycle(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	orgAcc := &models.Account{Username: "org", Email: "org@example.com", PasswordHash: "x"}
	partAcc := &models.Account{Username: "ana", Email: "ana@example.com", PasswordHash: "x"}
	for _, a := range []*models.Account{orgAcc, partAcc} {
		if err := s.CreateAccount(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	org := &models.Organizer{AccountID: orgAcc.ID, Name: "SENAC", Gender: models.GenderOther}
	if err := s.CreateOrganizer(ctx, org); err != nil {
		t.Fatal(err)
	}
	p := &models.Participant{AccountID: partAcc.ID, Name: "Ana", Gender: models.GenderFemale}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatal(err)
	}
	e := &models.Event{
		OrganizerID: org.ID,
		Title:       "Oficina 100% prática",
		Location:    "Auditório",
		ScheduledAt: time.Date(2030, 1, 15, 19, 0, 0, 0, time.UTC),
		CapacityMax: 2,
	}
	if err := s.CreateEvent(ctx, e); err != nil {
		t.Fatal(err)
	}

	en := &models.Enrollment{EventID: e.ID, ParticipantID: p.ID}
	if err := s.CreateEnrollment(ctx, en); err != nil {
		t.Fatal(err)
	}
	err := s.CreateEnrollment(ctx, &models.Enrollment{EventID: e.ID, ParticipantID: p.ID})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate err = %v", err)
	}
	counts, err := s.CountEnrollmentsByEvent(ctx, []int64{e.ID})
	if err != nil {
		t.Fatal(err)
	}
	if counts[e.ID] != 1 {
		t.Errorf("count = %d", counts[e.ID])
	}

	got, err := s.ListEvents(ctx, storage.EventQuery{Text: "100%"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("literal percent matched %d events", len(got))
	}
	got, err = s.ListEvents(ctx, storage.EventQuery{Text: "0% p"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("substring matched %d events", len(got))
	}

	if err := s.DeleteAccount(ctx, partAcc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEnrollment(ctx, en.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("enrollment survived account deletion: %v", err)
	}
}

func TestInTxRollsBack(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.InTx(ctx, true, func(tx storage.Store) error {
		if err := tx.CreateAccount(ctx, &models.Account{Username: "tmp", Email: "tmp@example.com", PasswordHash: "x"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.GetAccountByLogin(ctx, "tmp"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("account persisted after rollback: %v", err)
	}
}
