package task

import (
	"time"

	"github.com/lib/pq"
)

// Task is the collaborator entity reminders are built from. The reminder
// subsystem copies title/description at schedule time instead of reading
// back through this row.
type Task struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`

	Title       string `gorm:"type:text;not null"`
	Description string `gorm:"type:text;not null;default:''"`

	DueAt     *time.Time `gorm:"type:timestamptz"`
	Completed bool       `gorm:"not null;default:false"`

	Tags pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"index;not null;default:now()"`
}
