package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"nudge/internal/auth"
	"nudge/internal/calendar"
	"nudge/internal/reminder"
	"nudge/internal/task"
)

type CalendarHandler struct {
	Svc   *task.Service
	Store reminder.Store
}

// ExportICS serves the calendar artifact for a task. A fallback-fired
// reminder already persisted its ICS; otherwise the event is generated on
// demand from the task's current due date.
func (h *CalendarHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id64, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	t, err := h.Svc.Get(r.Context(), uid, id64)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	key := task.Key(id64)

	var body []byte
	if a, err := h.Store.Artifact(key); err == nil {
		body = []byte(a.ICS)
	} else {
		if t.DueAt == nil {
			http.Error(w, "task has no due date", http.StatusBadRequest)
			return
		}
		ev := calendar.FromReminder(t.Title, t.Description, *t.DueAt)
		body = calendar.ArtifactBytes(ev, key)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="task-%s.ics"`, key))
	_, _ = w.Write(body)
}

// ProviderLink returns a deep-link that pre-fills the event on a calendar
// provider (google or outlook).
func (h *CalendarHandler) ProviderLink(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id64, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	t, err := h.Svc.Get(r.Context(), uid, id64)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if t.DueAt == nil {
		http.Error(w, "task has no due date", http.StatusBadRequest)
		return
	}

	ev := calendar.FromReminder(t.Title, t.Description, *t.DueAt)
	provider := r.URL.Query().Get("provider")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"url": calendar.ProviderURL(ev, provider),
	})
}
