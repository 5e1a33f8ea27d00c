package db

import (
	"fmt"

	"nudge/internal/auth"
	"nudge/internal/reminder"
	"nudge/internal/task"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&task.Task{},
		&reminder.Reminder{},
		&reminder.Artifact{},
		&auth.User{},
	); err != nil {
		return err
	}

	// One reminder per task, enforced at the storage layer.
	if err := gdb.Exec(`create unique index if not exists uq_reminders_task on reminders(task_id);`).Error; err != nil {
		return err
	}

	// Tag filter (GIN for text[])
	if err := gdb.Exec(`create index if not exists idx_tasks_tags on tasks using gin (tags);`).Error; err != nil {
		return err
	}

	// Helpful indexes; the due scan is the hot path.
	stmts := []string{
		`create index if not exists idx_reminders_due on reminders(state, due_at);`,
		`create index if not exists idx_reminders_user on reminders(user_id, due_at);`,
		`create index if not exists idx_tasks_user_updated on tasks(user_id, updated_at desc);`,
		`create index if not exists idx_tasks_user_due on tasks(user_id, due_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
