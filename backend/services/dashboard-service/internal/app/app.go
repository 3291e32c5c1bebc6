package app

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"airmonitor/backend/libs/authtoken"
	libhttp "airmonitor/backend/libs/httpserver"
	"airmonitor/backend/libs/readings"
	libredis "airmonitor/backend/libs/redis"
	"airmonitor/backend/services/dashboard-service/internal/config"
	httpserver "airmonitor/backend/services/dashboard-service/internal/http"
	"airmonitor/backend/services/dashboard-service/internal/http/handlers"
	"airmonitor/backend/services/dashboard-service/internal/http/middleware"
	"airmonitor/backend/services/dashboard-service/internal/service"
	"airmonitor/backend/services/dashboard-service/internal/ws"
)

// App wires dashboard service dependencies.
type App struct {
	Service *service.DashboardService
	Hub     *ws.Hub

	server      *libhttp.Server
	cache       *readings.Cache
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

	var latest service.LatestReader
	if cfg.LiveEnabled() {
		a.redisClient, err = libredis.NewClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cache = readings.NewCache(a.redisClient, 0)
		latest = a.cache
		a.Hub = ws.NewHub(cfg.WS.PingInterval, cfg.WS.WriteTimeout, logger)
	} else {
		logger.Info("redis not configured, live feed disabled")
	}

	a.Service = service.NewDashboardService(store, latest, cfg.Storage, cfg.Environment, logger)

	api := handlers.NewAPIHandlers(a.Service, logger)
	page := handlers.NewPageHandler(a.Service, handlers.PageOptions{
		Live:    a.Hub != nil,
		MaxRows: cfg.Page.MaxRows,
	}, logger)
	routes := httpserver.Routes{
		Page:     page,
		Readings: api.Readings,
		Devices:  api.Devices,
		Stats:    api.Stats,
		Health:   handlers.NewHealthHandler(a.Service),
	}
	if a.Hub != nil {
		routes.Live = a.Hub
	}

	var auth httpserver.Auth
	if cfg.AuthEnabled() {
		tokens := authtoken.NewService(cfg.JWT.Secret, 0)
		auth.Header = middleware.AuthMiddleware(tokens, false, logger)
		auth.HeaderOrQuery = middleware.AuthMiddleware(tokens, true, logger)
	}

	router := httpserver.NewRouter(routes, auth)
	a.server = libhttp.NewServer("dashboard service", cfg.HTTPAddress(), router, logger,
		libhttp.RecoveryMiddleware(logger),
		libhttp.LoggingMiddleware(logger),
	)

	logger.Info("dashboard service configured",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("table", cfg.Storage.Location()),
		zap.Bool("auth", cfg.AuthEnabled()),
		zap.Bool("live", a.Hub != nil),
	)
	return a, nil
}

// Run serves HTTP and, when live updates are enabled, relays published readings to the hub.
func (a *App) Run(ctx context.Context) error {
	if a.Hub == nil {
		return a.server.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		err := a.cache.Subscribe(ctx, a.Hub.Broadcast, func(err error) {
			a.logger.Warn("dropping malformed live reading", zap.Error(err))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("live relay stopped", zap.Error(err))
		}
	}()

	err := a.server.Run(ctx)
	cancel()
	<-relayDone
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.Hub != nil {
		a.Hub.Close()
	}
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
