package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN", "database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}
