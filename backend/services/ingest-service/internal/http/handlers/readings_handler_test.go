package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"airmonitor/backend/libs/readings"
	"airmonitor/backend/services/ingest-service/internal/service"
)

type stubIngester struct {
	body []byte
	err  error
}

func (s *stubIngester) Ingest(_ context.Context, body []byte) (readings.Reading, error) {
	s.body = body
	if s.err != nil {
		return readings.Reading{}, s.err
	}
	return readings.ParsePayload(body, time.UnixMilli(1715342400000))
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/readings", strings.NewReader(body)))
	return rec
}

func TestReadingsHandler_Success(t *testing.T) {
	h := NewReadingsHandler(&stubIngester{}, 1024, zap.NewNop())

	rec := post(h, `{"deviceId":"air-monitor-02","temperature":21.4}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Data ingested successfully!","deviceId":"air-monitor-02","timestamp":1715342400000}`, rec.Body.String())
}

func TestReadingsHandler_InputErrors(t *testing.T) {
	h := NewReadingsHandler(&stubIngester{}, 1024, zap.NewNop())

	rec := post(h, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"No sensor data provided."}`, rec.Body.String())

	rec = post(h, `{"co2":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid JSON payload."}`, rec.Body.String())

	rec = post(h, `{"co2":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "co2")
}

func TestReadingsHandler_TooLarge(t *testing.T) {
	h := NewReadingsHandler(&stubIngester{}, 16, zap.NewNop())

	rec := post(h, `{"temperature":21.4,"humidity":40.2}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestReadingsHandler_StoreFailure(t *testing.T) {
	h := NewReadingsHandler(&stubIngester{err: fmt.Errorf("%w: throttled", service.ErrStore)}, 1024, zap.NewNop())

	rec := post(h, `{"co2":400}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Error ingesting data.","error":"ingest: store reading: throttled"}`, rec.Body.String())
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
