package httpserver

import (
	"net/http"

	libhttp "airmonitor/backend/libs/httpserver"
)

// Routes defines HTTP endpoints.
type Routes struct {
	Page     http.Handler
	Readings http.HandlerFunc
	Devices  http.HandlerFunc
	Stats    http.HandlerFunc
	Live     http.Handler
	Health   http.Handler
}

// Auth holds the token middlewares. A nil field leaves those routes open.
type Auth struct {
	// Header accepts bearer tokens only.
	Header func(http.Handler) http.Handler
	// HeaderOrQuery also accepts ?token=, for browser navigation and websockets.
	HeaderOrQuery func(http.Handler) http.Handler
}

// NewRouter sets up HTTP routing. /health is never authenticated.
func NewRouter(routes Routes, auth Auth) http.Handler {
	mux := http.NewServeMux()

	api := func(h http.Handler) http.Handler {
		return libhttp.Method(http.MethodGet, guard(h, auth.Header))
	}
	browser := func(h http.Handler) http.Handler {
		return libhttp.Method(http.MethodGet, guard(h, auth.HeaderOrQuery))
	}

	if routes.Page != nil {
		mux.Handle("/", browser(routes.Page))
	}
	if routes.Readings != nil {
		mux.Handle("/api/readings", api(routes.Readings))
	}
	if routes.Devices != nil {
		mux.Handle("/api/devices", api(routes.Devices))
	}
	if routes.Stats != nil {
		mux.Handle("/api/stats", api(routes.Stats))
	}
	if routes.Live != nil {
		mux.Handle("/ws", browser(routes.Live))
	}
	if routes.Health != nil {
		mux.Handle("/health", libhttp.Method(http.MethodGet, routes.Health))
	}
	return mux
}

func guard(h http.Handler, mw func(http.Handler) http.Handler) http.Handler {
	if mw == nil {
		return h
	}
	return mw(h)
}
