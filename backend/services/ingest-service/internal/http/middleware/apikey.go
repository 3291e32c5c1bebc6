package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"airmonitor/backend/libs/httpserver"
)

// HeaderAPIKey carries the device key, as with API Gateway usage plans.
const HeaderAPIKey = "x-api-key"

// KeyVerifier is implemented by apikey.Verifier.
type KeyVerifier interface {
	Verify(key string) bool
}

// APIKeyMiddleware rejects requests without a recognised x-api-key header.
func APIKeyMiddleware(verifier KeyVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !verifier.Verify(r.Header.Get(HeaderAPIKey)) {
				logger.Warn("rejected request with invalid api key", zap.String("remote_addr", r.RemoteAddr))
				httpserver.WriteJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
