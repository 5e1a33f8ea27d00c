package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"nudge/internal/worker"
)

type WorkerHandler struct {
	Coordinator *worker.Coordinator
	Clients     *worker.MemClients
}

// Events feeds one lifecycle or interaction event to the delivery worker
// and answers with the effects the client must carry out, in order.
func (h *WorkerHandler) Events(w http.ResponseWriter, r *http.Request) {
	var ev worker.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if ev.Type == "" {
		http.Error(w, "type required", http.StatusBadRequest)
		return
	}

	effects := h.Coordinator.Dispatch(ev)
	if effects == nil {
		effects = []worker.Effect{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(effects)
}

type workerClientReq struct {
	ID   string `json:"id"`
	Open bool   `json:"open"`
}

// Register tracks foreground contexts as they open and close, so a
// notification click knows whether to focus or open a window.
func (h *WorkerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req workerClientReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	if req.Open {
		h.Clients.Add(req.ID)
	} else {
		h.Clients.Remove(req.ID)
	}

	w.WriteHeader(http.StatusNoContent)
}
