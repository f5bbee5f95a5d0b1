package enrollments

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/storagetest"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeNotifier) EnrollmentConfirmed(ctx context.Context, en *models.Enrollment, e *models.Event, p *models.Participant, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, to)
	return f.err
}

type published struct {
	eventID int64
	name    string
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (f *fakePublisher) PublishToEvent(eventID int64, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{eventID: eventID, name: event})
}

func TestEnrollCapacityInvariant(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 3})
	svc := NewService(store, nil)

	var ok, full int
	for i := 0; i < 5; i++ {
		_, err := svc.Enroll(ctx, storagetest.Participant(t, store), event.ID)
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrCapacityExceeded):
			full++
		default:
			t.Fatalf("enroll %d: %v", i, err)
		}
	}
	if ok != 3 || full != 2 {
		t.Fatalf("ok=%d full=%d, want 3 and 2", ok, full)
	}
	n, err := store.CountEnrollments(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

func TestEnrollZeroCapacity(t *testing.T) {
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 0})
	svc := NewService(store, nil)
	if _, err := svc.Enroll(context.Background(), storagetest.Participant(t, store), event.ID); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("got %v, want ErrCapacityExceeded", err)
	}
}

func TestEnrollTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 10})
	p := storagetest.Participant(t, store)
	svc := NewService(store, nil)

	if _, err := svc.Enroll(ctx, p, event.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Enroll(ctx, p, event.ID); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("got %v, want ErrAlreadyEnrolled", err)
	}
	n, _ := store.CountEnrollments(ctx, event.ID)
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestEnrollDuplicateTakesPrecedenceOverCapacity(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 1})
	p := storagetest.Participant(t, store)
	svc := NewService(store, nil)

	if _, err := svc.Enroll(ctx, p, event.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Enroll(ctx, p, event.ID); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("got %v, want ErrAlreadyEnrolled", err)
	}
}

func TestEnrollRoleGating(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 10})
	svc := NewService(store, nil)

	tests := []struct {
		name    string
		viewer  identity.Viewer
		eventID int64
		want    error
	}{
		{"anonymous", identity.Anonymous(), event.ID, identity.ErrUnauthenticated},
		{"organizer only", org, event.ID, identity.ErrNotAParticipant},
		{"anonymous before missing event", identity.Anonymous(), 9999, identity.ErrUnauthenticated},
		{"missing event", storagetest.Participant(t, store), 9999, ErrEventNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Enroll(ctx, tt.viewer, tt.eventID); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
	n, _ := store.CountEnrollments(ctx, event.ID)
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestCapacityOneScenario(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 1})
	p1 := storagetest.Participant(t, store)
	p2 := storagetest.Participant(t, store)
	svc := NewService(store, nil)

	en, err := svc.Enroll(ctx, p1, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Enroll(ctx, p2, event.ID); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("second participant: got %v, want ErrCapacityExceeded", err)
	}
	if err := svc.Unenroll(ctx, p1, en.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Enroll(ctx, p2, event.ID); err != nil {
		t.Fatalf("seat should be free: %v", err)
	}
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 5})
	p := storagetest.Participant(t, store)
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := NewService(store, nil, WithNotifier(notifier))

	en, err := svc.Enroll(ctx, p, event.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := store.GetEnrollment(ctx, en.ID); err != nil {
		t.Fatalf("enrollment should persist: %v", err)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != p.Email {
		t.Fatalf("notifier calls = %v", notifier.calls)
	}
}

func TestNotifierNotCalledOnRejection(t *testing.T) {
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 0})
	notifier := &fakeNotifier{}
	pub := &fakePublisher{}
	svc := NewService(store, nil, WithNotifier(notifier), WithPublisher(pub))

	if _, err := svc.Enroll(context.Background(), storagetest.Participant(t, store), event.ID); err == nil {
		t.Fatal("expected rejection")
	}
	if len(notifier.calls) != 0 || len(pub.sent) != 0 {
		t.Fatalf("side effects on rejection: %v %v", notifier.calls, pub.sent)
	}
}

func TestPublishesChanges(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 5})
	p := storagetest.Participant(t, store)
	pub := &fakePublisher{}
	svc := NewService(store, nil, WithPublisher(pub))

	en, err := svc.Enroll(ctx, p, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Unenroll(ctx, p, en.ID); err != nil {
		t.Fatal(err)
	}
	want := []published{{event.ID, EventEnrollmentCreated}, {event.ID, EventEnrollmentRemoved}}
	if len(pub.sent) != len(want) {
		t.Fatalf("sent = %v", pub.sent)
	}
	for i := range want {
		if pub.sent[i] != want[i] {
			t.Fatalf("sent[%d] = %v, want %v", i, pub.sent[i], want[i])
		}
	}
}

func TestUnenrollOwnership(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 5})
	owner := storagetest.Participant(t, store)
	other := storagetest.Participant(t, store)

	t.Run("permissive", func(t *testing.T) {
		svc := NewService(store, nil)
		en, err := svc.Enroll(ctx, owner, event.ID)
		if err != nil {
			t.Fatal(err)
		}
		if err := svc.Unenroll(ctx, other, en.ID); err != nil {
			t.Fatalf("got %v, want nil", err)
		}
	})

	t.Run("strict", func(t *testing.T) {
		svc := NewService(store, nil, WithOwnershipCheck())
		en, err := svc.Enroll(ctx, owner, event.ID)
		if err != nil {
			t.Fatal(err)
		}
		if err := svc.Unenroll(ctx, other, en.ID); !errors.Is(err, ErrNotEnrollmentOwner) {
			t.Fatalf("got %v, want ErrNotEnrollmentOwner", err)
		}
		if err := svc.Unenroll(ctx, owner, en.ID); err != nil {
			t.Fatal(err)
		}
	})
}

func TestUnenrollErrors(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	svc := NewService(store, nil)

	if err := svc.Unenroll(ctx, identity.Anonymous(), 1); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Fatalf("anonymous: got %v", err)
	}
	if err := svc.Unenroll(ctx, org, 1); !errors.Is(err, identity.ErrNotAParticipant) {
		t.Fatalf("organizer: got %v", err)
	}
	if err := svc.Unenroll(ctx, storagetest.Participant(t, store), 404); !errors.Is(err, ErrEnrollmentNotFound) {
		t.Fatalf("missing: got %v", err)
	}
}

func TestSerializableEnrollUnderContention(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	event := storagetest.Event(t, store, org, models.Event{CapacityMax: 4})
	svc := NewService(store, nil, WithSerializable())

	viewers := make([]identity.Viewer, 12)
	for i := range viewers {
		viewers[i] = storagetest.Participant(t, store)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(viewers))
	for _, v := range viewers {
		wg.Add(1)
		go func(v identity.Viewer) {
			defer wg.Done()
			_, err := svc.Enroll(ctx, v, event.ID)
			errs <- err
		}(v)
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrCapacityExceeded):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 4 {
		t.Fatalf("admitted %d, want 4", ok)
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	otherOrg := storagetest.Organizer(t, store)
	mine := storagetest.Event(t, store, org, models.Event{Title: "Meu", CapacityMax: 3})
	theirs := storagetest.Event(t, store, otherOrg, models.Event{Title: "Deles", CapacityMax: 3})
	svc := NewService(store, nil)

	p := storagetest.Participant(t, store)
	if _, err := svc.Enroll(ctx, p, mine.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Enroll(ctx, p, theirs.ID); err != nil {
		t.Fatal(err)
	}

	d, err := svc.Dashboard(ctx, org)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Enrollments) != 1 || d.Enrollments[0].EventID != mine.ID {
		t.Fatalf("enrollments = %+v", d.Enrollments)
	}
	if d.Enrollments[0].ParticipantEmail != p.Email {
		t.Fatalf("participant email = %q", d.Enrollments[0].ParticipantEmail)
	}
	if len(d.Events) != 1 || d.Events[0].RemainingCapacity != 2 || d.Events[0].Enrolled != 1 {
		t.Fatalf("events = %+v", d.Events)
	}

	if _, err := svc.Dashboard(ctx, p); !errors.Is(err, identity.ErrNotAnOrganizer) {
		t.Fatalf("participant dashboard: got %v", err)
	}
}

func TestParticipantHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	org := storagetest.Organizer(t, store)
	a := storagetest.Event(t, store, org, models.Event{CapacityMax: 3})
	b := storagetest.Event(t, store, org, models.Event{CapacityMax: 3})
	p := storagetest.Participant(t, store)
	svc := NewService(store, nil)

	if _, err := svc.Enroll(ctx, p, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Enroll(ctx, p, b.ID); err != nil {
		t.Fatal(err)
	}
	list, err := svc.ParticipantHistory(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].EventID != b.ID {
		t.Fatalf("history = %+v", list)
	}
}
