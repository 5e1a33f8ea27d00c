package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nudge/internal/notify"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	fail bool
}

func (c *captureNotifier) Send(n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("primary channel down")
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func newTestScheduler(store Store, granted bool, n notify.Notifier) *Scheduler {
	gate := notify.NewGate(notify.ConfigPlatform{Enabled: granted}, n)
	return NewScheduler(store, gate, n, time.Minute, 24*time.Hour)
}

func TestPlan_OrdersByDueAtAndSkipsNotDue(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 1, 0, time.UTC)
	due := []Reminder{
		{TaskID: "late", State: StatePending, DueAt: now.Add(-time.Hour)},
		{TaskID: "future", State: StatePending, DueAt: now.Add(time.Hour)},
		{TaskID: "earliest", State: StatePending, DueAt: now.Add(-2 * time.Hour)},
		{TaskID: "done", State: StateFired, DueAt: now.Add(-time.Hour)},
	}

	decisions := Plan(now, due, notify.CapabilityGranted)
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].Reminder.TaskID != "earliest" || decisions[1].Reminder.TaskID != "late" {
		t.Fatalf("expected ascending due order, got %s then %s",
			decisions[0].Reminder.TaskID, decisions[1].Reminder.TaskID)
	}
	for _, d := range decisions {
		if d.Channel != ChannelPrimary {
			t.Fatalf("expected primary channel when granted, got %s", d.Channel)
		}
	}
}

func TestPlan_DeniedRoutesEverythingToFallback(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 1, 0, time.UTC)
	due := []Reminder{{TaskID: "t1", State: StatePending, DueAt: now.Add(-time.Second)}}

	for _, capability := range []notify.Capability{
		notify.CapabilityDenied,
		notify.CapabilityUnknown,
		notify.CapabilityRequesting,
	} {
		decisions := Plan(now, due, capability)
		if len(decisions) != 1 || decisions[0].Channel != ChannelFallback {
			t.Fatalf("capability %s: expected one fallback decision, got %+v", capability, decisions)
		}
	}
}

func TestReconcile_GrantedFiresPrimary(t *testing.T) {
	store := NewMemStore()
	n := &captureNotifier{}
	s := newTestScheduler(store, true, n)

	dueAt := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	if err := s.Schedule(1, "t1", "Pay rent", "Transfer before noon", dueAt); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	s.Reconcile(context.Background())

	r, err := store.Get("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.State != StateFired {
		t.Fatalf("expected fired, got %s", r.State)
	}
	if r.Channel != ChannelPrimary {
		t.Fatalf("expected primary channel, got %s", r.Channel)
	}
	if n.count() != 1 {
		t.Fatalf("expected one delivery, got %d", n.count())
	}
	if _, err := store.Artifact("t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no artifact on the primary path, got err=%v", err)
	}
}

func TestReconcile_DeniedFiresFallbackWithArtifact(t *testing.T) {
	store := NewMemStore()
	n := &captureNotifier{}
	s := newTestScheduler(store, false, n)

	dueAt := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	if err := s.Schedule(1, "t1", "Pay rent", "Transfer before noon", dueAt); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	s.Reconcile(context.Background())

	r, err := store.Get("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.State != StateFired || r.Channel != ChannelFallback {
		t.Fatalf("expected fired/fallback, got %s/%s", r.State, r.Channel)
	}
	if n.count() != 0 {
		t.Fatalf("primary path must not be touched when denied, got %d sends", n.count())
	}

	a, err := store.Artifact("t1")
	if err != nil {
		t.Fatalf("expected retrievable artifact: %v", err)
	}
	if !strings.Contains(a.ICS, "SUMMARY:Pay rent") {
		t.Fatalf("expected SUMMARY in artifact, got:\n%s", a.ICS)
	}
	if !strings.Contains(a.ICS, "DTSTART:20250101T090000Z") {
		t.Fatalf("expected due instant in artifact, got:\n%s", a.ICS)
	}
}

func TestReconcile_PrimaryFailureFallsBack(t *testing.T) {
	store := NewMemStore()
	n := &captureNotifier{fail: true}
	s := newTestScheduler(store, true, n)

	if err := s.Schedule(1, "t1", "Pay rent", "", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	s.Reconcile(context.Background())

	r, _ := store.Get("t1")
	if r.State != StateFired || r.Channel != ChannelFallback {
		t.Fatalf("expected fired/fallback after primary failure, got %s/%s", r.State, r.Channel)
	}
	if _, err := store.Artifact("t1"); err != nil {
		t.Fatalf("expected artifact after primary failure: %v", err)
	}
}

func TestReconcile_AtMostOnce(t *testing.T) {
	store := NewMemStore()
	n := &captureNotifier{}
	s := newTestScheduler(store, true, n)

	if err := s.Schedule(1, "t1", "Pay rent", "", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	s.Reconcile(context.Background())
	s.Reconcile(context.Background())

	if n.count() != 1 {
		t.Fatalf("expected exactly one delivery across passes, got %d", n.count())
	}
}

// blockingNotifier parks inside Send until released, so a test can hold
// one reconcile pass provably in flight while poking at the scheduler.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}

	mu   sync.Mutex
	sent int
}

func (b *blockingNotifier) Send(n notify.Notification) error {
	b.mu.Lock()
	b.sent++
	b.mu.Unlock()
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func (b *blockingNotifier) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}

func TestReconcile_ConcurrentCallCoalesces(t *testing.T) {
	store := NewMemStore()
	n := &blockingNotifier{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := newTestScheduler(store, true, n)

	if err := s.Schedule(1, "t1", "Pay rent", "", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Reconcile(context.Background())
		close(done)
	}()

	// the timer and a visibility event can race; while the first pass is
	// mid-delivery the second call must return immediately as a no-op
	<-n.entered
	s.Reconcile(context.Background())

	close(n.release)
	<-done

	if n.count() != 1 {
		t.Fatalf("expected exactly one delivery across overlapping passes, got %d", n.count())
	}
	r, err := store.Get("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.State != StateFired || r.Channel != ChannelPrimary {
		t.Fatalf("expected fired/primary, got %s/%s", r.State, r.Channel)
	}
}

func TestScheduleThenCancel_NothingDelivered(t *testing.T) {
	store := NewMemStore()
	n := &captureNotifier{}
	s := newTestScheduler(store, true, n)

	if err := s.Schedule(1, "t2", "Call dentist", "", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Cancel("t2"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	s.Reconcile(context.Background())

	if n.count() != 0 {
		t.Fatalf("expected no notification for cancelled reminder, got %d", n.count())
	}
	if _, err := store.Artifact("t2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no artifact for cancelled reminder, got err=%v", err)
	}
	r, _ := store.Get("t2")
	if r.State != StateCancelled {
		t.Fatalf("expected cancelled, got %s", r.State)
	}
}

func TestStateIsMonotonic(t *testing.T) {
	store := NewMemStore()
	n := &captureNotifier{}
	s := newTestScheduler(store, true, n)

	if err := s.Schedule(1, "t1", "Pay rent", "", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.Reconcile(context.Background())

	// cancel after firing must not resurrect or flip the record
	if err := s.Cancel("t1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	r, _ := store.Get("t1")
	if r.State != StateFired {
		t.Fatalf("expected fired to stay fired, got %s", r.State)
	}

	// and a fired reminder can never be marked fired again
	if ok, _ := store.MarkFired("t1", ChannelFallback, time.Now()); ok {
		t.Fatalf("expected second MarkFired to be refused")
	}
}

func TestSchedule_ReplacesPriorReminder(t *testing.T) {
	store := NewMemStore()
	n := &captureNotifier{}
	s := newTestScheduler(store, true, n)

	first := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	if err := s.Schedule(1, "t1", "Old title", "", first); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Schedule(1, "t1", "New title", "", first.Add(time.Hour)); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	r, err := store.Get("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.Title != "New title" || !r.DueAt.Equal(first.Add(time.Hour)) {
		t.Fatalf("expected replacement, got %+v", r)
	}

	s.Reconcile(context.Background())
	if n.count() != 1 {
		t.Fatalf("expected a single delivery for the replaced reminder, got %d", n.count())
	}
}

func TestReconcile_FutureRemindersUntouched(t *testing.T) {
	store := NewMemStore()
	n := &captureNotifier{}
	s := newTestScheduler(store, true, n)

	if err := s.Schedule(1, "t1", "Later", "", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.Reconcile(context.Background())

	r, _ := store.Get("t1")
	if r.State != StatePending {
		t.Fatalf("expected future reminder to stay pending, got %s", r.State)
	}
	if n.count() != 0 {
		t.Fatalf("expected no delivery, got %d", n.count())
	}
}

func TestReconcile_StaleOverdueStillFires(t *testing.T) {
	store := NewMemStore()
	n := &captureNotifier{}
	s := newTestScheduler(store, true, n)

	// three days past due, well beyond the grace window
	if err := s.Schedule(1, "t1", "Ancient", "", time.Now().Add(-72*time.Hour)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.Reconcile(context.Background())

	r, _ := store.Get("t1")
	if r.State != StateFired || r.Channel != ChannelPrimary {
		t.Fatalf("staleness must not change delivery policy, got %s/%s", r.State, r.Channel)
	}
}

func TestCancel_UnknownTaskIsNoop(t *testing.T) {
	store := NewMemStore()
	s := newTestScheduler(store, true, &captureNotifier{})
	if err := s.Cancel("nope"); err != nil {
		t.Fatalf("expected cancel of unknown task to be a no-op, got %v", err)
	}
}
