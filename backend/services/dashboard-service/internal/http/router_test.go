package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(name))
	}
}

func deny(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Denied-By", name)
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
}

func routes() Routes {
	return Routes{
		Page:     named("page"),
		Readings: named("readings"),
		Devices:  named("devices"),
		Stats:    named("stats"),
		Live:     named("ws"),
		Health:   named("health"),
	}
}

func TestNewRouter_Open(t *testing.T) {
	router := NewRouter(routes(), Auth{})

	for path, want := range map[string]string{
		"/":             "page",
		"/api/readings": "readings",
		"/api/devices":  "devices",
		"/api/stats":    "stats",
		"/ws":           "ws",
		"/health":       "health",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, want, rec.Body.String(), path)
	}
}

func TestNewRouter_Auth(t *testing.T) {
	router := NewRouter(routes(), Auth{Header: deny("header"), HeaderOrQuery: deny("query")})

	for path, want := range map[string]string{
		"/":             "query",
		"/api/readings": "header",
		"/api/devices":  "header",
		"/api/stats":    "header",
		"/ws":           "query",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, want, rec.Header().Get("X-Denied-By"), path)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_MethodNotAllowed(t *testing.T) {
	router := NewRouter(routes(), Auth{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/readings", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}
