package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"airmonitor/backend/libs/httpserver"
	"airmonitor/backend/libs/readings"
	"airmonitor/backend/services/dashboard-service/internal/service"
)

// ReadingsResponse is returned by GET /api/readings.
type ReadingsResponse struct {
	Readings []readings.Reading `json:"readings"`
	Count    int                `json:"count"`
}

// DevicesResponse is returned by GET /api/devices.
type DevicesResponse struct {
	Devices []string                    `json:"devices"`
	Latest  map[string]readings.Reading `json:"latest"`
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	Hours    int    `json:"hours"`
	DeviceID string `json:"deviceId,omitempty"`
	service.Summary
}

// APIHandlers serves the JSON API.
type APIHandlers struct {
	dashboard Dashboard
	logger    *zap.Logger
}

// NewAPIHandlers returns handlers.
func NewAPIHandlers(dashboard Dashboard, logger *zap.Logger) *APIHandlers {
	return &APIHandlers{dashboard: dashboard, logger: logger}
}

// Readings handles GET /api/readings?hours=H&device=D.
func (h *APIHandlers) Readings(w http.ResponseWriter, r *http.Request) {
	hours, deviceID := window(r)
	rs, err := h.dashboard.RecentReadings(r.Context(), hours, deviceID)
	if err != nil {
		h.logger.Error("failed to fetch readings", zap.Int("hours", hours), zap.String("device_id", deviceID), zap.Error(err))
		httpserver.WriteError(w, http.StatusInternalServerError, "Failed to fetch readings")
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, ReadingsResponse{Readings: rs, Count: len(rs)})
}

// Devices handles GET /api/devices.
func (h *APIHandlers) Devices(w http.ResponseWriter, r *http.Request) {
	ids, err := h.dashboard.DeviceIDs(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch device ids", zap.Error(err))
		httpserver.WriteError(w, http.StatusInternalServerError, "Failed to fetch devices")
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, DevicesResponse{
		Devices: ids,
		Latest:  h.dashboard.LatestByDevice(r.Context(), ids),
	})
}

// Stats handles GET /api/stats?hours=H&device=D.
func (h *APIHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	hours, deviceID := window(r)
	rs, err := h.dashboard.RecentReadings(r.Context(), hours, deviceID)
	if err != nil {
		h.logger.Error("failed to fetch readings for stats", zap.Error(err))
		httpserver.WriteError(w, http.StatusInternalServerError, "Failed to fetch readings")
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, StatsResponse{
		Hours:    hours,
		DeviceID: deviceID,
		Summary:  service.Summarize(rs),
	})
}

func window(r *http.Request) (int, string) {
	q := r.URL.Query()
	return service.ParseHours(q.Get("hours")), q.Get("device")
}
