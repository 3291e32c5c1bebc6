package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"airmonitor/backend/libs/readings"
)

type fakeStore struct {
	readings []readings.Reading
	ids      []string
	lastQ    readings.Query
	err      error
}

func (f *fakeStore) Put(context.Context, readings.Reading) error        { return f.err }
func (f *fakeStore) PutBatch(context.Context, []readings.Reading) error { return f.err }
func (f *fakeStore) Ping(context.Context) error                         { return f.err }

func (f *fakeStore) Recent(_ context.Context, q readings.Query) ([]readings.Reading, error) {
	f.lastQ = q
	return f.readings, f.err
}

func (f *fakeStore) DeviceIDs(context.Context) ([]string, error) { return f.ids, f.err }

type fakeLatest map[string]readings.Reading

func (f fakeLatest) Latest(_ context.Context, id string) (*readings.Reading, error) {
	if id == "broken" {
		return nil, errors.New("redis down")
	}
	r, ok := f[id]
	if !ok {
		return nil, readings.ErrNotFound
	}
	return &r, nil
}

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newService(store readings.Store, latest LatestReader) *DashboardService {
	svc := NewDashboardService(store, latest, readings.DefaultStorage(), "test", zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestParseHours(t *testing.T) {
	assert.Equal(t, 24, ParseHours(""))
	assert.Equal(t, 24, ParseHours("abc"))
	assert.Equal(t, 24, ParseHours("0"))
	assert.Equal(t, 24, ParseHours("-3"))
	assert.Equal(t, 6, ParseHours("6"))
	assert.Equal(t, 24*365, ParseHours("100000"))
}

func TestRecentReadings(t *testing.T) {
	store := &fakeStore{}
	got, err := newService(store, nil).RecentReadings(context.Background(), 6, "air-monitor-kitchen")
	require.NoError(t, err)

	assert.NotNil(t, got, "empty result encodes as []")
	assert.Equal(t, fixedNow.Add(-6*time.Hour).UnixMilli(), store.lastQ.Since)
	assert.Equal(t, "air-monitor-kitchen", store.lastQ.DeviceID)
}

func TestDeviceIDsAndLatest(t *testing.T) {
	store := &fakeStore{ids: []string{"bedroom", "broken", "kitchen"}}
	latest := fakeLatest{"kitchen": {DeviceID: "kitchen", Timestamp: 5, Values: map[string]float64{"co2": 520}}}
	svc := newService(store, latest)

	ids, err := svc.DeviceIDs(context.Background())
	require.NoError(t, err)

	byDevice := svc.LatestByDevice(context.Background(), ids)
	assert.Len(t, byDevice, 1)
	assert.Equal(t, 520.0, byDevice["kitchen"].Values["co2"])

	assert.Empty(t, newService(store, nil).LatestByDevice(context.Background(), ids))
}

func TestHealth(t *testing.T) {
	h := newService(&fakeStore{}, nil).Health(context.Background())
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "connected", h.Storage)
	assert.Equal(t, "air-monitor-readings", h.Table)
	assert.Equal(t, "2024-05-10T12:00:00Z", h.Timestamp)

	h = newService(&fakeStore{err: errors.New("ResourceNotFoundException")}, nil).Health(context.Background())
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "error: ResourceNotFoundException", h.Storage)
}

func TestSummarize(t *testing.T) {
	rs := []readings.Reading{
		{DeviceID: "kitchen", Timestamp: 300, Values: map[string]float64{"co2": 600, "temperature": 24}},
		{DeviceID: "bedroom", Timestamp: 200, Values: map[string]float64{"co2": 400}},
		{DeviceID: "kitchen", Timestamp: 100, Values: map[string]float64{"co2": 500, "temperature": 23}},
	}

	s := Summarize(rs)

	assert.Equal(t, 3, s.TotalReadings)
	assert.Equal(t, 2, s.ActiveDevices)
	assert.Equal(t, int64(300), s.LatestTimestamp)
	assert.Equal(t, []string{"co2", "temperature"}, s.MetricNames())
	assert.Equal(t, MetricStats{Count: 3, Min: 400, Max: 600, Avg: 500, Latest: 600}, s.Metrics["co2"])
	assert.Equal(t, MetricStats{Count: 2, Min: 23, Max: 24, Avg: 23.5, Latest: 24}, s.Metrics["temperature"])
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.TotalReadings)
	assert.NotNil(t, s.Metrics)
}
