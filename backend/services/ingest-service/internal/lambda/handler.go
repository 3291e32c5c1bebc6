// Package lambda serves the ingest endpoint as an API Gateway proxy Lambda.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"airmonitor/backend/services/ingest-service/internal/http/handlers"
	"airmonitor/backend/services/ingest-service/internal/http/middleware"
)

// Handler adapts API Gateway proxy events to the ingest service.
type Handler struct {
	ingester handlers.Ingester
	verifier middleware.KeyVerifier
	logger   *zap.Logger
}

// NewHandler returns handler. A nil verifier leaves key checks to API Gateway.
func NewHandler(ingester handlers.Ingester, verifier middleware.KeyVerifier, logger *zap.Logger) *Handler {
	return &Handler{ingester: ingester, verifier: verifier, logger: logger}
}

// Handle processes one proxy request.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if h.verifier != nil && !h.verifier.Verify(header(req.Headers, middleware.HeaderAPIKey)) {
		return respond(http.StatusForbidden, map[string]string{"message": "Forbidden"}), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return respond(http.StatusBadRequest, handlers.ErrorResponse{Message: "Invalid JSON payload."}), nil
		}
		body = decoded
	}

	reading, err := h.ingester.Ingest(ctx, body)
	if err != nil {
		h.logger.Warn("ingest failed", zap.String("request_id", req.RequestContext.RequestID), zap.Error(err))
	}
	status, payload := handlers.Outcome(reading, err)
	return respond(status, payload), nil
}

func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func respond(status int, payload interface{}) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"message":"Error ingesting data."}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
