package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"airmonitor/backend/libs/httpserver"
	"airmonitor/backend/libs/readings"
	"airmonitor/backend/services/ingest-service/internal/service"
)

// Ingester is implemented by service.IngestService.
type Ingester interface {
	Ingest(ctx context.Context, body []byte) (readings.Reading, error)
}

// IngestResponse is the success body returned to devices.
type IngestResponse struct {
	Message   string `json:"message"`
	DeviceID  string `json:"deviceId"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse is returned on failure. Error is only set for server-side failures.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Outcome maps an ingest result to status and body. The Lambda entry point shares it.
func Outcome(reading readings.Reading, err error) (int, interface{}) {
	switch {
	case err == nil:
		return http.StatusOK, IngestResponse{
			Message:   "Data ingested successfully!",
			DeviceID:  reading.DeviceID,
			Timestamp: reading.Timestamp,
		}
	case errors.Is(err, readings.ErrNoSensorData):
		return http.StatusBadRequest, ErrorResponse{Message: "No sensor data provided."}
	case errors.Is(err, readings.ErrMalformed):
		return http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON payload."}
	case errors.Is(err, readings.ErrInvalidValue):
		return http.StatusBadRequest, ErrorResponse{Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Message: "Error ingesting data.", Error: err.Error()}
	}
}

// ReadingsHandler handles POST /readings from devices.
type ReadingsHandler struct {
	ingester     Ingester
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewReadingsHandler returns handler.
func NewReadingsHandler(ingester Ingester, maxBodyBytes int64, logger *zap.Logger) *ReadingsHandler {
	return &ReadingsHandler{
		ingester:     ingester,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// ServeHTTP handles POST /readings.
func (h *ReadingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpserver.WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Message: "Payload too large."})
			return
		}
		httpserver.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON payload."})
		return
	}

	reading, err := h.ingester.Ingest(r.Context(), body)
	if err != nil {
		if service.IsInputError(err) {
			h.logger.Debug("rejected reading", zap.Error(err))
		} else {
			h.logger.Error("failed to ingest reading", zap.Error(err))
		}
	}

	status, payload := Outcome(reading, err)
	httpserver.WriteJSON(w, status, payload)
}
