package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/notify"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/queue"
)

type fakeSource struct {
	jobs    []*queue.Job
	retried []*queue.Job
	asked   []string
}

func (s *fakeSource) Dequeue(ctx context.Context, queues ...string) (*queue.Job, error) {
	s.asked = queues
	if len(s.jobs) == 0 {
		return nil, nil
	}
	j := s.jobs[0]
	s.jobs = s.jobs[1:]
	return j, nil
}

func (s *fakeSource) Retry(ctx context.Context, job *queue.Job) (bool, error) {
	job.Attempt++
	if job.Attempt >= queue.MaxRetries {
		return true, nil
	}
	s.retried = append(s.retried, job)
	s.jobs = append(s.jobs, job)
	return false, nil
}

type fakeMailer struct {
	sent []notify.Email
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, e notify.Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

type statusLog map[int64][2]string

func (s statusLog) UpdateEmailLogStatus(ctx context.Context, id int64, status, msg string) error {
	s[id] = [2]string{status, msg}
	return nil
}

type fakeBanners struct{ deleted []string }

func (b *fakeBanners) DeleteBanner(ctx context.Context, key string) error {
	b.deleted = append(b.deleted, key)
	return nil
}

func job(t *testing.T, typ queue.JobType, payload any) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return &queue.Job{ID: string(typ), Type: typ, Payload: raw}
}

func TestRunnerDispatches(t *testing.T) {
	mailer, logs, banners := &fakeMailer{}, statusLog{}, &fakeBanners{}
	src := &fakeSource{jobs: []*queue.Job{
		job(t, queue.JobTypeEmail, queue.EmailPayload{EmailLogID: 4, RecipientEmail: "ana@example.com", Subject: "s"}),
		job(t, queue.JobTypeBannerCleanup, queue.BannerCleanupPayload{Key: "banners/a.png"}),
	}}
	r := NewRunner(src, map[queue.JobType]Processor{
		queue.JobTypeEmail:         NewEmailProcessor(mailer, logs, nil),
		queue.JobTypeBannerCleanup: NewBannerProcessor(banners, nil),
	}, nil)

	for i := 0; i < 2; i++ {
		if ok, err := r.RunOnce(context.Background()); !ok || err != nil {
			t.Fatalf("run %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := r.RunOnce(context.Background()); ok {
		t.Fatal("queue should be empty")
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "ana@example.com" {
		t.Errorf("sent = %+v", mailer.sent)
	}
	if logs[4][0] != models.EmailLogStatusSent {
		t.Errorf("status = %v", logs[4])
	}
	if len(banners.deleted) != 1 || banners.deleted[0] != "banners/a.png" {
		t.Errorf("deleted = %v", banners.deleted)
	}
}

func TestRunnerMarksFailedAfterRetries(t *testing.T) {
	mailer, logs := &fakeMailer{err: errors.New("relay refused")}, statusLog{}
	src := &fakeSource{jobs: []*queue.Job{
		job(t, queue.JobTypeEmail, queue.EmailPayload{EmailLogID: 7, RecipientEmail: "ana@example.com"}),
	}}
	r := NewRunner(src, map[queue.JobType]Processor{
		queue.JobTypeEmail: NewEmailProcessor(mailer, logs, nil),
	}, nil)

	for i := 0; i < queue.MaxRetries; i++ {
		if _, err := r.RunOnce(context.Background()); err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
		if i < queue.MaxRetries-1 {
			if _, ok := logs[7]; ok {
				t.Fatalf("attempt %d: status set before giving up", i)
			}
		}
	}
	if got := logs[7]; got[0] != models.EmailLogStatusFailed || got[1] != "relay refused" {
		t.Errorf("status = %v", got)
	}
	if len(src.retried) != queue.MaxRetries-1 {
		t.Errorf("retried %d times", len(src.retried))
	}
}

func TestBannerProcessorIgnoresEmptyKey(t *testing.T) {
	b := &fakeBanners{}
	p := NewBannerProcessor(b, nil)
	if err := p.Process(context.Background(), job(t, queue.JobTypeBannerCleanup, queue.BannerCleanupPayload{})); err != nil {
		t.Fatal(err)
	}
	if len(b.deleted) != 0 {
		t.Errorf("deleted = %v", b.deleted)
	}
}

func TestRunnerConsumesOnlyHandledQueues(t *testing.T) {
	src := &fakeSource{}
	r := NewRunner(src, map[queue.JobType]Processor{
		queue.JobTypeEmail: NewEmailProcessor(&fakeMailer{}, statusLog{}, nil),
	}, nil)
	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(src.asked) != 1 || src.asked[0] != queue.QueueEmails {
		t.Errorf("dequeued from %v", src.asked)
	}
}
