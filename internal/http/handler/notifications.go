package handler

import (
	"encoding/json"
	"net/http"

	"nudge/internal/notify"
	"nudge/internal/reminder"
)

type NotificationHandler struct {
	Gate      *notify.Gate
	Scheduler *reminder.Scheduler
}

// Permission reports the current notification capability.
func (h *NotificationHandler) Permission(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"capability": string(h.Gate.Current()),
	})
}

// Request drives the consent flow. Concurrent requests share one prompt;
// the response always carries a definite capability.
func (h *NotificationHandler) Request(w http.ResponseWriter, r *http.Request) {
	capability := h.Gate.Request(r.Context())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"capability": string(capability),
	})
}

// Test fires one immediate throwaway notification so the user can confirm
// the primary channel works.
func (h *NotificationHandler) Test(w http.ResponseWriter, r *http.Request) {
	delivered := h.Gate.SendTest()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{
		"delivered": delivered,
	})
}

// Visibility is the foreground's "I'm back" signal; it triggers an
// opportunistic reconcile pass to catch reminders that came due while the
// client was backgrounded.
func (h *NotificationHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	h.Scheduler.Kick()
	w.WriteHeader(http.StatusNoContent)
}
