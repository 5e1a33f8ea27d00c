package reminder

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"nudge/internal/calendar"
	"nudge/internal/notify"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultGrace    = 24 * time.Hour
)

// Scheduler owns the pending-reminder queue and drives each due reminder to
// a terminal fired state exactly once, on whichever channel is eligible.
type Scheduler struct {
	Store    Store
	Gate     *notify.Gate
	Notifier notify.Notifier

	Interval time.Duration
	Grace    time.Duration

	reconciling sync.Mutex
	kick        chan struct{}
}

func NewScheduler(store Store, gate *notify.Gate, notifier notify.Notifier, interval, grace time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Scheduler{
		Store:    store,
		Gate:     gate,
		Notifier: notifier,
		Interval: interval,
		Grace:    grace,
		kick:     make(chan struct{}, 1),
	}
}

// Schedule upserts a pending reminder for the task, replacing any earlier
// one, and persists before returning so a crash right after cannot lose the
// obligation.
func (s *Scheduler) Schedule(userID uint64, taskID, title, body string, dueAt time.Time) error {
	return s.Store.Upsert(Reminder{
		UserID: userID,
		TaskID: taskID,
		Title:  title,
		Body:   body,
		DueAt:  dueAt.UTC(),
		State:  StatePending,
	})
}

// Cancel retires the task's pending reminder, if any.
func (s *Scheduler) Cancel(taskID string) error {
	return s.Store.Cancel(taskID)
}

// Decision is one planned firing: which reminder, on which channel.
type Decision struct {
	Reminder Reminder
	Channel  Channel
}

// Plan is the pure core of reconciliation: given a clock reading, a due
// set and the current capability, decide what fires where. No I/O, no
// clock reads; the timer and storage wiring around it stays thin.
func Plan(now time.Time, due []Reminder, capability notify.Capability) []Decision {
	sorted := make([]Reminder, len(due))
	copy(sorted, due)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DueAt.Before(sorted[j].DueAt) })

	out := make([]Decision, 0, len(sorted))
	for _, r := range sorted {
		if r.State != StatePending || r.DueAt.After(now) {
			continue
		}
		ch := ChannelFallback
		if capability == notify.CapabilityGranted {
			ch = ChannelPrimary
		}
		out = append(out, Decision{Reminder: r, Channel: ch})
	}
	return out
}

// Reconcile runs one delivery pass over the due set. A pass already in
// flight makes a concurrent call a no-op; the timer and a visibility kick
// can race without doubling deliveries.
func (s *Scheduler) Reconcile(ctx context.Context) {
	if !s.reconciling.TryLock() {
		return
	}
	defer s.reconciling.Unlock()

	now := time.Now().UTC()
	due, err := s.Store.DuePending(now)
	if err != nil {
		log.Printf("reminder: due scan failed: %v\n", err)
		return
	}

	for _, d := range Plan(now, due, s.Gate.Current()) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.fire(d, now)
	}
}

func (s *Scheduler) fire(d Decision, now time.Time) {
	r := d.Reminder
	ch := d.Channel

	if ch == ChannelPrimary {
		err := s.Notifier.Send(notify.Notification{TaskID: r.TaskID, Title: r.Title, Body: r.Body})
		if err != nil {
			log.Printf("reminder: primary delivery failed for task=%s, falling back: %v\n", r.TaskID, err)
			ch = ChannelFallback
		}
	}

	if ch == ChannelFallback {
		ev := calendar.FromReminder(r.Title, r.Body, r.DueAt)
		a := Artifact{
			TaskID:    r.TaskID,
			UserID:    r.UserID,
			ICS:       calendar.ICS(ev, r.TaskID),
			CreatedAt: now,
		}
		if err := s.Store.SaveArtifact(a); err != nil {
			// nothing was delivered; leave the reminder pending so the
			// next pass tries again
			log.Printf("reminder: artifact persist failed for task=%s: %v\n", r.TaskID, err)
			return
		}
	}

	fired, err := s.Store.MarkFired(r.TaskID, ch, now)
	if err != nil {
		log.Printf("reminder: state persist failed for task=%s: %v\n", r.TaskID, err)
		return
	}
	if fired && now.Sub(r.DueAt) > s.Grace {
		log.Printf("reminder: task=%s fired %s past due (missed)\n", r.TaskID, now.Sub(r.DueAt).Round(time.Second))
	}
}

// Run drives reconciliation: one catch-up pass at startup for reminders
// that came due while the process was down, then the recurring timer, plus
// opportunistic passes via Kick.
func (s *Scheduler) Run(ctx context.Context) {
	s.Reconcile(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reconcile(ctx)
		case <-s.kick:
			s.Reconcile(ctx)
		}
	}
}

// Kick requests an out-of-band pass, e.g. when a client reports regaining
// foreground visibility. Never blocks.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}
