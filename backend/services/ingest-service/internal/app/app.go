package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"airmonitor/backend/libs/apikey"
	libhttp "airmonitor/backend/libs/httpserver"
	"airmonitor/backend/libs/readings"
	libredis "airmonitor/backend/libs/redis"
	"airmonitor/backend/services/ingest-service/internal/config"
	httpserver "airmonitor/backend/services/ingest-service/internal/http"
	"airmonitor/backend/services/ingest-service/internal/http/handlers"
	"airmonitor/backend/services/ingest-service/internal/http/middleware"
	"airmonitor/backend/services/ingest-service/internal/service"
)

// App wires ingest service dependencies.
type App struct {
	Service  *service.IngestService
	Verifier *apikey.Verifier

	server      *libhttp.Server
	closeStore  func() error
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs application components.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, closeStore, err := readings.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &App{closeStore: closeStore, logger: logger}

	var publisher service.Publisher
	if cfg.CacheEnabled() {
		a.redisClient, err = libredis.NewClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		publisher = readings.NewCache(a.redisClient, cfg.Redis.TTL)
	} else {
		logger.Info("redis not configured, live updates disabled")
	}

	a.Service = service.NewIngestService(store, publisher, logger)
	a.Verifier = apikey.NewVerifier(cfg.APIKeys)

	routes := httpserver.Routes{
		Readings: handlers.NewReadingsHandler(a.Service, cfg.HTTP.MaxBodyBytes, logger),
		Health:   handlers.NewHealthHandler(),
	}
	router := httpserver.NewRouter(routes, middleware.APIKeyMiddleware(a.Verifier, logger))
	a.server = libhttp.NewServer("ingest service", cfg.HTTPAddress(), router, logger,
		libhttp.RecoveryMiddleware(logger),
		libhttp.LoggingMiddleware(logger),
	)

	logger.Info("ingest service configured",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("table", cfg.Storage.Location()),
		zap.Int("api_keys", a.Verifier.Len()),
	)
	return a, nil
}

// Run starts serving HTTP requests.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.logger.Warn("failed to close store", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
