package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"nudge/internal/auth"
	"nudge/internal/reminder"
)

type ReminderHandler struct {
	Store reminder.Store
}

type reminderDTO struct {
	TaskID  string     `json:"task_id"`
	Title   string     `json:"title"`
	Body    string     `json:"body"`
	DueAt   time.Time  `json:"due_at"`
	State   string     `json:"state"`
	Channel string     `json:"channel,omitempty"`
	FiredAt *time.Time `json:"fired_at,omitempty"`
}

// List exposes the user's reminder queue for diagnostics: what is pending,
// what fired, and on which channel.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	rows, err := h.Store.ListByUser(uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]reminderDTO, 0, len(rows))
	for _, rem := range rows {
		out = append(out, reminderDTO{
			TaskID:  rem.TaskID,
			Title:   rem.Title,
			Body:    rem.Body,
			DueAt:   rem.DueAt,
			State:   string(rem.State),
			Channel: string(rem.Channel),
			FiredAt: rem.FiredAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
