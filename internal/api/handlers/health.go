package handlers

import (
	"context"
	"net/http"
)

// HealthHandler answers liveness checks. When Ping is set it also verifies
// the catalog database and reports 503 if it is unreachable.
type HealthHandler struct {
	Ping func(ctx context.Context) error
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
