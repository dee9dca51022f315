package http

import (
	"log/slog"
	"net/http"

	"github.com/vhtruong/product-catalog/internal/storage/db"
)

type healthHandler struct {
	responder

	checker db.HealthChecker
}

func newHealthHandler(checker db.HealthChecker, re responder) *healthHandler {
	return &healthHandler{
		responder: re,
		checker:   checker,
	}
}

func (h *healthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if healthy, err := h.checker.IsHealthy(r.Context()); err != nil || !healthy {
		h.logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		h.respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
