package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/queue"
)

type memLogs struct {
	created []*models.EmailLog
	status  map[int64]string
}

func (m *memLogs) CreateEmailLog(ctx context.Context, l *models.EmailLog) error {
	l.ID = int64(len(m.created) + 1)
	m.created = append(m.created, l)
	return nil
}

func (m *memLogs) UpdateEmailLogStatus(ctx context.Context, id int64, status, msg string) error {
	if m.status == nil {
		m.status = map[int64]string{}
	}
	m.status[id] = status
	return nil
}

type memQueue struct {
	payloads []queue.EmailPayload
	err      error
}

func (q *memQueue) EnqueueEmail(ctx context.Context, p queue.EmailPayload) error {
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, p)
	return nil
}

func TestQueueNotifier(t *testing.T) {
	r, err := NewRenderer(nil)
	if err != nil {
		t.Fatal(err)
	}
	logs, q := &memLogs{}, &memQueue{}
	n := NewQueueNotifier(r, logs, q, nil)
	e, p := fixture()

	err = n.EnrollmentConfirmed(context.Background(), &models.Enrollment{ID: 11}, e, p, "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(logs.created) != 1 || len(q.payloads) != 1 {
		t.Fatalf("logs=%d payloads=%d", len(logs.created), len(q.payloads))
	}
	l := logs.created[0]
	if l.Status != models.EmailLogStatusPending || *l.EventID != 3 || *l.EnrollmentID != 11 {
		t.Errorf("log = %+v", l)
	}
	got := q.payloads[0]
	if got.EmailLogID != l.ID || got.RecipientEmail != "ana@example.com" || got.BodyHTML == "" {
		t.Errorf("payload = %+v", got)
	}
}

func TestQueueNotifierEnqueueFailure(t *testing.T) {
	r, _ := NewRenderer(nil)
	logs, q := &memLogs{}, &memQueue{err: errors.New("redis down")}
	n := NewQueueNotifier(r, logs, q, nil)
	e, p := fixture()

	err := n.EnrollmentConfirmed(context.Background(), &models.Enrollment{ID: 1}, e, p, "ana@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if logs.status[1] != models.EmailLogStatusFailed {
		t.Errorf("status = %q", logs.status[1])
	}
}
