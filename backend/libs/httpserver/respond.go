package httpserver

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// HTTPAddress turns a bare port into :port.
func HTTPAddress(port, fallback string) string {
	if port == "" {
		port = fallback
	}
	if port != "" && port[0] == ':' {
		return port
	}
	return ":" + port
}
