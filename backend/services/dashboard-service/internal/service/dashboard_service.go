package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"airmonitor/backend/libs/readings"
)

const (
	// DefaultHours is used when the hours parameter is missing or invalid.
	DefaultHours = 24
	maxHours     = 24 * 365
)

// LatestReader returns the most recent cached reading for a device.
type LatestReader interface {
	Latest(ctx context.Context, deviceID string) (*readings.Reading, error)
}

// MetricStats summarises one sensor metric over a window.
type MetricStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Latest float64 `json:"latest"`
}

// Summary aggregates a set of readings.
type Summary struct {
	TotalReadings   int                    `json:"totalReadings"`
	ActiveDevices   int                    `json:"activeDevices"`
	LatestTimestamp int64                  `json:"latestTimestamp,omitempty"`
	Metrics         map[string]MetricStats `json:"metrics"`
}

// Health describes store connectivity.
type Health struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Message     string `json:"message"`
	Environment string `json:"environment"`
	Driver      string `json:"storageDriver"`
	Table       string `json:"table"`
	Storage     string `json:"storage"`
}

// DashboardService reads stored readings for the dashboard.
type DashboardService struct {
	store  readings.Store
	latest LatestReader
	info   readings.StorageConfig
	env    string
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService returns service. latest may be nil.
func NewDashboardService(store readings.Store, latest LatestReader, info readings.StorageConfig, env string, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		store:  store,
		latest: latest,
		info:   info,
		env:    env,
		logger: logger,
		now:    time.Now,
	}
}

// ParseHours reads the hours query parameter, defaulting to 24.
func ParseHours(raw string) int {
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return DefaultHours
	}
	if hours > maxHours {
		return maxHours
	}
	return hours
}

// RecentReadings returns readings of the last hours, newest first.
func (s *DashboardService) RecentReadings(ctx context.Context, hours int, deviceID string) ([]readings.Reading, error) {
	result, err := s.store.Recent(ctx, readings.SinceHours(s.now(), hours, deviceID))
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []readings.Reading{}
	}
	return result, nil
}

// DeviceIDs lists all known devices.
func (s *DashboardService) DeviceIDs(ctx context.Context) ([]string, error) {
	ids, err := s.store.DeviceIDs(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// LatestByDevice returns the cached latest reading of each device that has one.
func (s *DashboardService) LatestByDevice(ctx context.Context, ids []string) map[string]readings.Reading {
	out := make(map[string]readings.Reading)
	if s.latest == nil {
		return out
	}
	for _, id := range ids {
		r, err := s.latest.Latest(ctx, id)
		if err != nil {
			if !errors.Is(err, readings.ErrNotFound) {
				s.logger.Warn("failed to read latest reading", zap.String("device_id", id), zap.Error(err))
			}
			continue
		}
		out[id] = *r
	}
	return out
}

// Health pings the store. A failing store degrades the status but is not an error.
func (s *DashboardService) Health(ctx context.Context) Health {
	h := Health{
		Status:      "ok",
		Timestamp:   s.now().UTC().Format(time.RFC3339),
		Message:     "Air Monitor Dashboard is healthy!",
		Environment: s.env,
		Driver:      s.info.Driver,
		Table:       s.info.Location(),
		Storage:     "connected",
	}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("storage health check failed", zap.Error(err))
		h.Status = "degraded"
		h.Storage = "error: " + err.Error()
	}
	return h
}

// Summarize computes per-metric statistics. rs must be newest first.
func Summarize(rs []readings.Reading) Summary {
	summary := Summary{
		TotalReadings: len(rs),
		Metrics:       make(map[string]MetricStats),
	}
	if len(rs) == 0 {
		return summary
	}
	summary.LatestTimestamp = rs[0].Timestamp

	devices := make(map[string]struct{})
	sums := make(map[string]float64)
	for _, r := range rs {
		devices[r.DeviceID] = struct{}{}
		for name, v := range r.Values {
			st, seen := summary.Metrics[name]
			if !seen {
				st = MetricStats{Min: math.Inf(1), Max: math.Inf(-1), Latest: v}
			}
			st.Count++
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
			sums[name] += v
			summary.Metrics[name] = st
		}
	}
	for name, st := range summary.Metrics {
		st.Avg = round(sums[name]/float64(st.Count), 2)
		summary.Metrics[name] = st
	}
	summary.ActiveDevices = len(devices)
	return summary
}

// MetricNames returns the metrics of a summary sorted by name.
func (s Summary) MetricNames() []string {
	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
