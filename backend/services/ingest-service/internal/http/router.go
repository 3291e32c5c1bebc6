package httpserver

import (
	"net/http"

	libhttp "airmonitor/backend/libs/httpserver"
)

// Routes defines HTTP endpoints.
type Routes struct {
	Readings http.Handler
	Health   http.Handler
}

// NewRouter sets up HTTP routing. Only /readings goes through auth.
func NewRouter(routes Routes, auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	if routes.Readings != nil {
		mux.Handle("/readings", libhttp.Method(http.MethodPost, libhttp.Chain(routes.Readings, auth)))
	}
	if routes.Health != nil {
		mux.Handle("/health", libhttp.Method(http.MethodGet, routes.Health))
	}
	return mux
}
