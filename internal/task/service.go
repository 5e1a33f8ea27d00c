package task

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")
var ErrInvalidInput = errors.New("invalid input")

// ReminderScheduler is what the task layer needs from the reminder core:
// upsert an obligation when a due date appears, retire it when the date is
// cleared or the task goes away.
type ReminderScheduler interface {
	Schedule(userID uint64, taskID, title, body string, dueAt time.Time) error
	Cancel(taskID string) error
}

type Service struct {
	DB        *gorm.DB
	Scheduler ReminderScheduler
}

type CreateInput struct {
	Title       string
	Description string
	DueAt       *time.Time
}

type UpdateInput struct {
	Title       *string
	Description *string
	DueAt       *time.Time
	ClearDueAt  bool
	Completed   *bool
}

// Key is the opaque reminder identifier for a task row.
func Key(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return Task{}, ErrInvalidInput
	}

	t := Task{
		UserID:      userID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		DueAt:       normalize(in.DueAt),
		Tags:        pq.StringArray(ExtractTags(in.Title + " " + in.Description)),
	}
	if err := s.DB.WithContext(ctx).Create(&t).Error; err != nil {
		return Task{}, err
	}

	if t.DueAt != nil {
		if err := s.Scheduler.Schedule(userID, Key(t.ID), t.Title, t.Description, *t.DueAt); err != nil {
			return Task{}, err
		}
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, userID, id uint64, in UpdateInput) (Task, error) {
	var t Task
	if err := s.DB.WithContext(ctx).Where("id=? AND user_id=?", id, userID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}

	prevDue := t.DueAt

	if in.Title != nil {
		v := strings.TrimSpace(*in.Title)
		if v == "" {
			return Task{}, ErrInvalidInput
		}
		t.Title = v
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.ClearDueAt {
		t.DueAt = nil
	} else if in.DueAt != nil {
		t.DueAt = normalize(in.DueAt)
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	t.Tags = pq.StringArray(ExtractTags(t.Title + " " + t.Description))
	t.UpdatedAt = time.Now()

	if err := s.DB.WithContext(ctx).Save(&t).Error; err != nil {
		return Task{}, err
	}

	switch planReminderOp(prevDue, t.DueAt, t.Completed) {
	case opCancel:
		if err := s.Scheduler.Cancel(Key(t.ID)); err != nil {
			return Task{}, err
		}
	case opSchedule:
		if err := s.Scheduler.Schedule(userID, Key(t.ID), t.Title, t.Description, *t.DueAt); err != nil {
			return Task{}, err
		}
	}
	return t, nil
}

type reminderOp int

const (
	opNone reminderOp = iota
	opSchedule
	opCancel
)

// planReminderOp decides how an edit affects the task's reminder. One
// reminder per task: a due-date change replaces it, completion or a
// cleared due date retires it. Edits that leave the due date alone must
// not touch the reminder at all, since re-upserting would resurrect an
// already-fired one as pending and deliver a duplicate notification.
func planReminderOp(prevDue, newDue *time.Time, completed bool) reminderOp {
	switch {
	case completed || newDue == nil:
		return opCancel
	case prevDue == nil || !prevDue.Equal(*newDue):
		return opSchedule
	default:
		return opNone
	}
}

func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	res := s.DB.WithContext(ctx).Where("id=? AND user_id=?", id, userID).Delete(&Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return s.Scheduler.Cancel(Key(id))
}

func (s *Service) Get(ctx context.Context, userID, id uint64) (Task, error) {
	var t Task
	if err := s.DB.WithContext(ctx).Where("id=? AND user_id=?", id, userID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, userID uint64, tag string, completed *bool) ([]Task, error) {
	q := s.DB.WithContext(ctx).Model(&Task{}).Where("user_id = ?", userID)
	if tag != "" {
		q = q.Where("? = any(tags)", strings.ToLower(tag))
	}
	if completed != nil {
		q = q.Where("completed = ?", *completed)
	}

	var out []Task
	if err := q.Order("updated_at desc").Limit(100).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func normalize(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
