package reminder

import "time"

type State string

const (
	StatePending   State = "pending"
	StateFired     State = "fired"
	StateCancelled State = "cancelled"
)

type Channel string

const (
	ChannelPrimary  Channel = "primary"
	ChannelFallback Channel = "fallback"
)

// Reminder is the durable record of one task's obligation to notify the
// user. Title and body are copied at schedule time; later task edits do not
// rewrite an already-fired reminder. State moves pending -> fired|cancelled
// exactly once and never back.
type Reminder struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`
	TaskID string `gorm:"type:text;uniqueIndex;not null"`

	Title string `gorm:"type:text;not null"`
	Body  string `gorm:"type:text;not null;default:''"`

	DueAt time.Time `gorm:"index;not null"`
	State State     `gorm:"type:text;index;not null;default:'pending'"`

	// Channel records how the reminder was actually delivered, for
	// diagnostics. Empty until fired.
	Channel Channel    `gorm:"type:text;not null;default:''"`
	FiredAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// Artifact is the durable fallback deliverable: the ICS text generated for
// a reminder that could not go out on the primary channel, addressable by
// task so the UI can offer it for manual export later.
type Artifact struct {
	TaskID    string    `gorm:"primaryKey;type:text"`
	UserID    uint64    `gorm:"index;not null"`
	ICS       string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}
