package readings

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestParsePayload(t *testing.T) {
	r, err := ParsePayload([]byte(`{"deviceId":"air-monitor-02","temperature":21.5,"co2":612,"timestamp":1}`), now)
	require.NoError(t, err)

	assert.Equal(t, "air-monitor-02", r.DeviceID)
	assert.Equal(t, now.UnixMilli(), r.Timestamp)
	assert.Equal(t, map[string]float64{"temperature": 21.5, "co2": 612}, r.Values)
	assert.Equal(t, []string{"co2", "temperature"}, r.Metrics())
	assert.Equal(t, now, r.Time())
}

func TestParsePayload_DefaultDeviceID(t *testing.T) {
	for _, body := range []string{`{"humidity":40}`, `{"deviceId":"","humidity":40}`} {
		r, err := ParsePayload([]byte(body), now)
		require.NoError(t, err)
		assert.Equal(t, "air-monitor-01", r.DeviceID)
	}
}

func TestParsePayload_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty object", `{}`, ErrNoSensorData},
		{"device only", `{"deviceId":"air-monitor-02"}`, ErrNoSensorData},
		{"timestamp only", `{"deviceId":"air-monitor-02","timestamp":1715342400000}`, ErrNoSensorData},
		{"not json", `temperature=21`, ErrMalformed},
		{"array", `[1,2]`, ErrMalformed},
		{"null", `null`, ErrMalformed},
		{"second object", `{"co2":400}{"co2":500}`, ErrMalformed},
		{"trailing text", `{"co2":400} extra`, ErrMalformed},
		{"trailing comma", `{"co2":400},`, ErrMalformed},
		{"numeric device id", `{"deviceId":7,"co2":400}`, ErrMalformed},
		{"string value", `{"co2":"high"}`, ErrInvalidValue},
		{"nested value", `{"pm":{"mc2p5":3}}`, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload([]byte(tt.body), now)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParsePayload_AllowsTrailingWhitespace(t *testing.T) {
	r, err := ParsePayload([]byte("{\"co2\":400}\r\n  \n"), now)
	require.NoError(t, err)
	assert.Equal(t, 400.0, r.Values["co2"])
}

func TestReadingJSON_Flattened(t *testing.T) {
	r := Reading{DeviceID: "air-monitor-kitchen", Timestamp: 1715342400000, Values: map[string]float64{"tvoc": 180}}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"deviceId":"air-monitor-kitchen","timestamp":1715342400000,"tvoc":180}`, string(data))

	var back Reading
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

func TestSinceHours(t *testing.T) {
	q := SinceHours(now, 6, "air-monitor-01")
	assert.Equal(t, now.Add(-6*time.Hour).UnixMilli(), q.Since)
	assert.Equal(t, DefaultLimit, q.limit())

	q.DeviceID = ""
	assert.Equal(t, DefaultScanLimit, q.limit())
	q.Limit = 5
	assert.Equal(t, 5, q.limit())
}

func TestStorageConfigValidate(t *testing.T) {
	require.NoError(t, DefaultStorage().Validate())
	assert.Equal(t, "air-monitor-readings", DefaultStorage().Location())

	pg := StorageConfig{Driver: "Postgres"}
	assert.Error(t, pg.Validate())
	pg.PostgresDSN = "postgres://localhost/air"
	assert.NoError(t, pg.Validate())
	assert.Equal(t, "readings", pg.Location())

	assert.Error(t, StorageConfig{Driver: "sqlite"}.Validate())
	assert.Error(t, StorageConfig{Driver: DriverDynamoDB}.Validate())
}
