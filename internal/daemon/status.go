package daemon

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"shelver/internal/queue"
)

// StatusPayload is the JSON shape served at /status and consumed by the
// `shelver status` command.
type StatusPayload struct {
	Running bool              `json:"running"`
	Active  []ActiveJobStatus `json:"active"`
	Queued  int               `json:"queued"`
}

// ActiveJobStatus is one in-flight job in the status payload.
type ActiveJobStatus struct {
	JobID   int64 `json:"job_id"`
	Percent int   `json:"percent"`
}

type statusHandler struct {
	pool    *queue.Pool
	running *atomic.Bool
}

// NewStatusHandler serves the pool snapshot as JSON.
func NewStatusHandler(pool *queue.Pool, running *atomic.Bool) http.Handler {
	return &statusHandler{pool: pool, running: running}
}

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := h.pool.Status()
	payload := StatusPayload{
		Running: h.running == nil || h.running.Load(),
		Active:  make([]ActiveJobStatus, 0, len(snapshot.Active)),
		Queued:  snapshot.Queued,
	}
	for _, active := range snapshot.Active {
		payload.Active = append(payload.Active, ActiveJobStatus{JobID: active.JobID, Percent: active.Percent})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
