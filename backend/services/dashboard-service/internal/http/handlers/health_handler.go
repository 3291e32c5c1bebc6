package handlers

import (
	"net/http"

	"airmonitor/backend/libs/httpserver"
)

// HealthHandler reports store connectivity. It answers 200 even when degraded.
type HealthHandler struct {
	dashboard Dashboard
}

// NewHealthHandler returns handler.
func NewHealthHandler(dashboard Dashboard) *HealthHandler {
	return &HealthHandler{dashboard: dashboard}
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, h.dashboard.Health(r.Context()))
}
