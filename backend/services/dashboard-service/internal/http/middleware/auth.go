package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"airmonitor/backend/libs/authtoken"
	"airmonitor/backend/libs/httpserver"
)

type contextKey string

const subjectKey contextKey = "subject"

// TokenValidator is implemented by authtoken.Service.
type TokenValidator interface {
	Validate(token string) (*authtoken.Claims, error)
}

// AuthMiddleware validates dashboard tokens. With allowQuery the token may also
// come from the token query parameter, since browsers cannot set headers on websockets.
func AuthMiddleware(validator TokenValidator, allowQuery bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok && allowQuery {
				tokenStr = r.URL.Query().Get("token")
				ok = tokenStr != ""
			}
			if !ok {
				httpserver.WriteError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			claims, err := validator.Validate(tokenStr)
			if err != nil {
				logger.Debug("rejected dashboard token", zap.Error(err))
				httpserver.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// SubjectFromContext retrieves the token subject from request context.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}
