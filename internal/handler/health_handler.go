package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"account-api/internal/model"
)

const healthPingTimeout = 2 * time.Second

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		writeSuccess(w, http.StatusServiceUnavailable, model.HealthStatus{Status: "degraded", Database: "unreachable"})
		return
	}

	writeSuccess(w, http.StatusOK, model.HealthStatus{Status: "ok", Database: "ok"})
}
