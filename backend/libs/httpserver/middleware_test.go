package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMethod(t *testing.T) {
	h := Method(http.MethodPost, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readings", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/readings", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecoveryAndLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("sensor exploded")
	})
	h := Chain(panicking, LoggingMiddleware(logger), RecoveryMiddleware(logger))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/readings", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	requests := logs.FilterMessage("http request").All()
	if assert.Len(t, requests, 1) {
		assert.Equal(t, int64(http.StatusInternalServerError), requests[0].ContextMap()["status"])
	}
}

func TestHTTPAddress(t *testing.T) {
	assert.Equal(t, ":8081", HTTPAddress("", "8081"))
	assert.Equal(t, ":9000", HTTPAddress("9000", "8081"))
	assert.Equal(t, ":7000", HTTPAddress(":7000", "8081"))
}
