package reminder

import (
	"sort"
	"sync"
	"time"
)

// MemStore is the in-memory twin of GormStore. It backs the
// storage-unavailable degrade path (reminders for the session only) and
// tests.
type MemStore struct {
	mu        sync.Mutex
	nextID    uint64
	reminders map[string]Reminder
	artifacts map[string]Artifact
}

func NewMemStore() *MemStore {
	return &MemStore{
		reminders: make(map[string]Reminder),
		artifacts: make(map[string]Artifact),
	}
}

func (s *MemStore) Upsert(r Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	r.State = StatePending
	r.Channel = ""
	r.FiredAt = nil
	s.reminders[r.TaskID] = r
	delete(s.artifacts, r.TaskID)
	return nil
}

func (s *MemStore) Cancel(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[taskID]
	if !ok || r.State != StatePending {
		return nil
	}
	r.State = StateCancelled
	s.reminders[taskID] = r
	return nil
}

func (s *MemStore) Get(taskID string) (*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemStore) DuePending(now time.Time) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reminder, 0)
	for _, r := range s.reminders {
		if r.State == StatePending && !r.DueAt.After(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (s *MemStore) MarkFired(taskID string, ch Channel, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[taskID]
	if !ok || r.State != StatePending {
		return false, nil
	}
	firedAt := at
	r.State = StateFired
	r.Channel = ch
	r.FiredAt = &firedAt
	s.reminders[taskID] = r
	return true, nil
}

func (s *MemStore) ListByUser(userID uint64) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reminder, 0)
	for _, r := range s.reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (s *MemStore) SaveArtifact(a Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[a.TaskID] = a
	return nil
}

func (s *MemStore) Artifact(taskID string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}
