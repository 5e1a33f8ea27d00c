package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nudge/internal/auth"
	"nudge/internal/task"

	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	Svc *task.Service
}

type taskDTO struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Completed   bool       `json:"completed"`
	Tags        []string   `json:"tags"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskDTO(t task.Task) taskDTO {
	return taskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueAt:       t.DueAt,
		Completed:   t.Completed,
		Tags:        []string(t.Tags),
		UpdatedAt:   t.UpdatedAt,
	}
}

type createTaskReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueAt       *string `json:"due_at"` // RFC3339 optional
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	dueAt, ok := parseDue(req.DueAt)
	if !ok {
		http.Error(w, "invalid due_at (RFC3339)", http.StatusBadRequest)
		return
	}

	t, err := h.Svc.Create(r.Context(), uid, task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueAt:       dueAt,
	})
	if err != nil {
		if errors.Is(err, task.ErrInvalidInput) {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toTaskDTO(t))
}

type updateTaskReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueAt       *string `json:"due_at"` // RFC3339; "" clears the due date
	Completed   *bool   `json:"completed"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id64, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	in := task.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}
	if req.DueAt != nil {
		if strings.TrimSpace(*req.DueAt) == "" {
			in.ClearDueAt = true
		} else {
			dueAt, ok := parseDue(req.DueAt)
			if !ok {
				http.Error(w, "invalid due_at (RFC3339)", http.StatusBadRequest)
				return
			}
			in.DueAt = dueAt
		}
	}

	t, err := h.Svc.Update(r.Context(), uid, id64, in)
	if err != nil {
		switch {
		case errors.Is(err, task.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, task.ErrInvalidInput):
			http.Error(w, "invalid input", http.StatusBadRequest)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toTaskDTO(t))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id64, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.Delete(r.Context(), uid, id64); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toTaskDTO(t))
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	tag := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("tag")))

	var completed *bool
	switch strings.TrimSpace(strings.ToLower(r.URL.Query().Get("completed"))) {
	case "true":
		v := true
		completed = &v
	case "false":
		v := false
		completed = &v
	}

	rows, err := h.Svc.List(r.Context(), uid, tag, completed)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]taskDTO, 0, len(rows))
	for _, t := range rows {
		out = append(out, toTaskDTO(t))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func parseDue(s *string) (*time.Time, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
