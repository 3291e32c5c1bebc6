package handlers

import (
	"context"

	"airmonitor/backend/libs/readings"
	"airmonitor/backend/services/dashboard-service/internal/service"
)

// Dashboard is implemented by service.DashboardService.
type Dashboard interface {
	RecentReadings(ctx context.Context, hours int, deviceID string) ([]readings.Reading, error)
	DeviceIDs(ctx context.Context) ([]string, error)
	LatestByDevice(ctx context.Context, ids []string) map[string]readings.Reading
	Health(ctx context.Context) service.Health
}
