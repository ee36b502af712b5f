package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// ----- Fakes -----

type fakeSessions struct {
	sess *domain.Session
	err  error
}

func (f *fakeSessions) Current() (*domain.Session, error) { return f.sess, f.err }

// fakeQueue is an in-memory Queue with per-record scripted failures.
type fakeQueue struct {
	mu      sync.Mutex
	records []domain.Record
}

func (q *fakeQueue) ListUnsent(ctx context.Context) ([]domain.Record, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.Record
	for _, r := range q.records {
		if !r.Sent {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q *fakeQueue) MarkSent(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.records {
		if q.records[i].ID == id {
			q.records[i].Sent = true
			return nil
		}
	}
	return errors.New("not found")
}

func (q *fakeQueue) MarkFailed(ctx context.Context, id, detail string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.records {
		if q.records[i].ID == id {
			q.records[i].LastError = detail
			q.records[i].Attempts++
			return nil
		}
	}
	return errors.New("not found")
}

func (q *fakeQueue) record(id string) domain.Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, r := range q.records {
		if r.ID == id {
			return r
		}
	}
	return domain.Record{}
}

// fakeSubmitter fails each record id the scripted number of times before
// accepting it.
type fakeSubmitter struct {
	mu        sync.Mutex
	failures  map[string]int
	attempts  map[string]int
	gotBearer string
}

func (f *fakeSubmitter) SubmitRecord(ctx context.Context, bearer string, rec *domain.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotBearer = bearer
	if f.attempts == nil {
		f.attempts = make(map[string]int)
	}
	f.attempts[rec.ID]++
	if f.failures[rec.ID] > 0 {
		f.failures[rec.ID]--
		return errors.New("remote unavailable")
	}
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testDelivery(q *fakeQueue, sub *fakeSubmitter, n Notifier) *DeliveryService {
	return &DeliveryService{
		Sessions:  &fakeSessions{sess: &domain.Session{Bearer: "b1", ScopeID: "E1"}},
		Queue:     q,
		Submitter: sub,
		Backup:    n,
		Interval:  5 * time.Millisecond,
	}
}

// ----- Tests -----

func TestSendAll_DeliversInOrderWithBearer(t *testing.T) {
	q := &fakeQueue{records: []domain.Record{{ID: "r1"}, {ID: "r2"}}}
	sub := &fakeSubmitter{}
	s := testDelivery(q, sub, nil)

	sum, err := s.SendAll(context.Background())
	if err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	if sum.Delivered != 2 || sum.Failed != 0 || sum.Remaining != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if sub.gotBearer != "b1" {
		t.Errorf("bearer = %q", sub.gotBearer)
	}
	if !q.record("r1").Sent || !q.record("r2").Sent {
		t.Error("records must be marked sent")
	}
}

func TestSendAll_NoSession(t *testing.T) {
	s := testDelivery(&fakeQueue{}, &fakeSubmitter{}, nil)
	s.Sessions = &fakeSessions{err: ErrNoSession}
	if _, err := s.SendAll(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v; want ErrNoSession", err)
	}
}

func TestSendAll_FailureStaysQueuedWithDetail(t *testing.T) {
	q := &fakeQueue{records: []domain.Record{{ID: "r1"}, {ID: "r2"}}}
	sub := &fakeSubmitter{failures: map[string]int{"r1": 1}}
	s := testDelivery(q, sub, nil)

	sum, err := s.SendAll(context.Background())
	if err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	if sum.Delivered != 1 || sum.Failed != 1 || sum.Remaining != 1 {
		t.Errorf("summary = %+v", sum)
	}
	r1 := q.record("r1")
	if r1.Sent || r1.LastError == "" || r1.Attempts != 1 {
		t.Errorf("failed record = %+v", r1)
	}
	// One failure must not block the rest of the pass.
	if !q.record("r2").Sent {
		t.Error("r2 must be delivered despite r1 failing")
	}
}

func TestSendAll_SentRecordsNeverResubmitted(t *testing.T) {
	q := &fakeQueue{records: []domain.Record{{ID: "r1"}}}
	sub := &fakeSubmitter{}
	s := testDelivery(q, sub, nil)

	s.SendAll(context.Background())
	s.SendAll(context.Background())
	if sub.attempts["r1"] != 1 {
		t.Errorf("attempts = %d; want exactly one submission", sub.attempts["r1"])
	}
}

func TestSendAll_BackupNotifiedOnlyOnDelivery(t *testing.T) {
	q := &fakeQueue{records: []domain.Record{{ID: "r1"}}}
	n := &fakeNotifier{}
	s := testDelivery(q, &fakeSubmitter{}, n)

	s.SendAll(context.Background())
	if n.count() != 1 {
		t.Fatalf("notify calls = %d; want 1", n.count())
	}
	// Nothing left to deliver: no further notification.
	s.SendAll(context.Background())
	if n.count() != 1 {
		t.Errorf("notify calls = %d; empty pass must not notify", n.count())
	}
}

func TestSendAll_BackupFailureIsAnnotationOnly(t *testing.T) {
	q := &fakeQueue{records: []domain.Record{{ID: "r1"}}}
	n := &fakeNotifier{err: errors.New("relay down")}
	s := testDelivery(q, &fakeSubmitter{}, n)

	sum, err := s.SendAll(context.Background())
	if err != nil {
		t.Fatalf("SendAll: %v; backup failure must not fail the pass", err)
	}
	if sum.Delivered != 1 {
		t.Errorf("delivered = %d", sum.Delivered)
	}
	if sum.BackupError == "" {
		t.Error("backup failure must be surfaced on the summary")
	}
	if !q.record("r1").Sent {
		t.Error("primary delivery state must be unaffected")
	}
}

func TestRetryLoop_ConvergesAfterTransientFailures(t *testing.T) {
	q := &fakeQueue{records: []domain.Record{{ID: "r1"}}}
	sub := &fakeSubmitter{failures: map[string]int{"r1": 2}}
	s := testDelivery(q, sub, nil)

	if err := s.StartRetry(context.Background()); err != nil {
		t.Fatalf("StartRetry: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for !q.record("r1").Sent {
		select {
		case <-deadline:
			t.Fatal("retry loop did not converge")
		case <-time.After(2 * time.Millisecond):
		}
	}
	// Converged loop releases its running state on its own.
	for s.Running() {
		select {
		case <-deadline:
			t.Fatal("loop still running after convergence")
		case <-time.After(2 * time.Millisecond):
		}
	}
	if got := sub.attempts["r1"]; got != 3 {
		t.Errorf("attempts = %d; want fail, fail, deliver", got)
	}
}

func TestRetryLoop_StartWhileRunning(t *testing.T) {
	q := &fakeQueue{records: []domain.Record{{ID: "r1"}}}
	sub := &fakeSubmitter{failures: map[string]int{"r1": 1 << 30}}
	s := testDelivery(q, sub, nil)
	s.Interval = time.Hour // keep it parked between passes

	if err := s.StartRetry(context.Background()); err != nil {
		t.Fatalf("StartRetry: %v", err)
	}
	defer s.StopRetry()

	if err := s.StartRetry(context.Background()); !errors.Is(err, ErrRetryRunning) {
		t.Fatalf("second start = %v; want ErrRetryRunning", err)
	}
}

func TestStopRetry_IdempotentAndWaits(t *testing.T) {
	q := &fakeQueue{records: []domain.Record{{ID: "r1"}}}
	sub := &fakeSubmitter{failures: map[string]int{"r1": 1 << 30}}
	s := testDelivery(q, sub, nil)
	s.Interval = time.Hour

	if err := s.StartRetry(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.StopRetry()
	if s.Running() {
		t.Error("Running after StopRetry")
	}
	s.StopRetry() // no-op on an idle engine
	if err := s.StartRetry(context.Background()); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	s.StopRetry()
}

func TestRetryLoop_CancelledParentStopsLoop(t *testing.T) {
	q := &fakeQueue{records: []domain.Record{{ID: "r1"}}}
	sub := &fakeSubmitter{failures: map[string]int{"r1": 1 << 30}}
	s := testDelivery(q, sub, nil)
	s.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.StartRetry(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for s.Running() {
		select {
		case <-deadline:
			t.Fatal("loop did not exit on parent cancellation")
		case <-time.After(2 * time.Millisecond):
		}
	}
}
