package reminder

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

// Store is the durable home of reminders and fallback artifacts. It is the
// sole source of truth; scheduler memory is a cache rebuilt from it.
type Store interface {
	// Upsert replaces any prior reminder for the task with a fresh pending
	// one, write-through before returning.
	Upsert(r Reminder) error
	// Cancel moves a pending reminder to cancelled. No-op when the task has
	// no reminder or it already reached a terminal state.
	Cancel(taskID string) error
	Get(taskID string) (*Reminder, error)
	// DuePending returns pending reminders with DueAt <= now, ascending by
	// DueAt.
	DuePending(now time.Time) ([]Reminder, error)
	// MarkFired moves a pending reminder to fired and records the channel.
	// Returns false without touching the row when it is no longer pending,
	// which is what makes re-running a pass safe.
	MarkFired(taskID string, ch Channel, at time.Time) (bool, error)
	ListByUser(userID uint64) ([]Reminder, error)

	SaveArtifact(a Artifact) error
	Artifact(taskID string) (*Artifact, error)
}

// GormStore keeps reminders in Postgres.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Upsert(r Reminder) error {
	r.State = StatePending
	r.Channel = ""
	r.FiredAt = nil
	return s.DB.Transaction(func(tx *gorm.DB) error {
		// editing replaces rather than appends, and a stale artifact from a
		// previous firing must not outlive the reschedule
		if err := tx.Where("task_id = ?", r.TaskID).Delete(&Reminder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", r.TaskID).Delete(&Artifact{}).Error; err != nil {
			return err
		}
		return tx.Create(&r).Error
	})
}

func (s *GormStore) Cancel(taskID string) error {
	return s.DB.Exec(`
update reminders
set state = 'cancelled', updated_at = now()
where task_id = ? and state = 'pending'
`, taskID).Error
}

func (s *GormStore) Get(taskID string) (*Reminder, error) {
	var r Reminder
	if err := s.DB.Where("task_id = ?", taskID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) DuePending(now time.Time) ([]Reminder, error) {
	var out []Reminder
	err := s.DB.
		Where("state = ? AND due_at <= ?", StatePending, now).
		Order("due_at asc").
		Find(&out).Error
	return out, err
}

func (s *GormStore) MarkFired(taskID string, ch Channel, at time.Time) (bool, error) {
	res := s.DB.Exec(`
update reminders
set state = 'fired', channel = ?, fired_at = ?, updated_at = now()
where task_id = ? and state = 'pending'
`, ch, at, taskID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ListByUser(userID uint64) ([]Reminder, error) {
	var out []Reminder
	err := s.DB.
		Where("user_id = ?", userID).
		Order("due_at asc").
		Limit(200).
		Find(&out).Error
	return out, err
}

func (s *GormStore) SaveArtifact(a Artifact) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", a.TaskID).Delete(&Artifact{}).Error; err != nil {
			return err
		}
		return tx.Create(&a).Error
	})
}

func (s *GormStore) Artifact(taskID string) (*Artifact, error) {
	var a Artifact
	if err := s.DB.Where("task_id = ?", taskID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
