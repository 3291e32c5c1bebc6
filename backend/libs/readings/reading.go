// Package readings models sensor readings posted by air monitors and the
// stores that keep them.
package readings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"airmonitor/backend/libs/device"
)

// Attribute names shared by the JSON wire format and the DynamoDB item layout.
const (
	AttrDeviceID  = "deviceId"
	AttrTimestamp = "timestamp"
)

const (
	// DefaultLimit caps a single-device query.
	DefaultLimit = 1000
	// DefaultScanLimit caps an all-devices query.
	DefaultScanLimit = 10000
)

var (
	ErrMalformed    = errors.New("readings: malformed payload")
	ErrNoSensorData = errors.New("readings: no sensor data provided")
	ErrInvalidValue = errors.New("readings: sensor value must be numeric")
	ErrNotFound     = errors.New("readings: not found")
)

// Reading is one sample from one device. Timestamp is Unix milliseconds.
type Reading struct {
	DeviceID  string
	Timestamp int64
	Values    map[string]float64
}

// Time returns the timestamp as UTC time.
func (r Reading) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

// Metrics returns the sensor names in sorted order.
func (r Reading) Metrics() []string {
	names := make([]string, 0, len(r.Values))
	for name := range r.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON flattens sensor values next to deviceId and timestamp.
func (r Reading) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Values)+2)
	for k, v := range r.Values {
		flat[k] = v
	}
	flat[AttrDeviceID] = r.DeviceID
	flat[AttrTimestamp] = r.Timestamp
	return json.Marshal(flat)
}

// UnmarshalJSON reverses MarshalJSON. Non-numeric sensor fields are rejected.
func (r *Reading) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	out := Reading{Values: make(map[string]float64, len(fields))}
	for key, raw := range fields {
		switch key {
		case AttrDeviceID:
			id, ok := raw.(string)
			if !ok {
				return fmt.Errorf("%w: deviceId must be a string", ErrMalformed)
			}
			out.DeviceID = id
		case AttrTimestamp:
			n, ok := raw.(json.Number)
			if !ok {
				return fmt.Errorf("%w: timestamp must be a number", ErrMalformed)
			}
			ts, err := n.Int64()
			if err != nil {
				return fmt.Errorf("%w: timestamp: %v", ErrMalformed, err)
			}
			out.Timestamp = ts
		default:
			v, err := numeric(key, raw)
			if err != nil {
				return err
			}
			out.Values[key] = v
		}
	}
	*r = out
	return nil
}

// ParsePayload turns a device POST body into a Reading stamped with now.
// A missing deviceId falls back to the default device ID and a client-sent
// timestamp is ignored.
func ParsePayload(body []byte, now time.Time) (Reading, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return Reading{}, err
	}

	reading := Reading{
		DeviceID:  device.DefaultDeviceID,
		Timestamp: now.UnixMilli(),
		Values:    make(map[string]float64, len(fields)),
	}

	if raw, ok := fields[AttrDeviceID]; ok {
		id, isString := raw.(string)
		if !isString {
			return Reading{}, fmt.Errorf("%w: deviceId must be a string", ErrMalformed)
		}
		if id != "" {
			reading.DeviceID = id
		}
	}

	for key, raw := range fields {
		if key == AttrDeviceID || key == AttrTimestamp {
			continue
		}
		v, err := numeric(key, raw)
		if err != nil {
			return Reading{}, err
		}
		reading.Values[key] = v
	}

	if len(reading.Values) == 0 {
		return Reading{}, ErrNoSensorData
	}
	return reading, nil
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", ErrMalformed)
	}
	return fields, nil
}

func numeric(key string, raw any) (float64, error) {
	n, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidValue, key)
	}
	v, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return v, nil
}

// Query selects readings recorded at or after Since (Unix ms).
// An empty DeviceID spans all devices.
type Query struct {
	Since    int64
	DeviceID string
	Limit    int
}

// SinceHours builds a query covering the last hours.
func SinceHours(now time.Time, hours int, deviceID string) Query {
	return Query{
		Since:    now.Add(-time.Duration(hours) * time.Hour).UnixMilli(),
		DeviceID: deviceID,
	}
}

func (q Query) limit() int {
	if q.Limit > 0 {
		return q.Limit
	}
	if q.DeviceID != "" {
		return DefaultLimit
	}
	return DefaultScanLimit
}

// Store persists readings. Recent returns newest first.
type Store interface {
	Put(ctx context.Context, r Reading) error
	PutBatch(ctx context.Context, rs []Reading) error
	Recent(ctx context.Context, q Query) ([]Reading, error)
	DeviceIDs(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

func sortNewestFirst(rs []Reading) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Timestamp != rs[j].Timestamp {
			return rs[i].Timestamp > rs[j].Timestamp
		}
		return rs[i].DeviceID < rs[j].DeviceID
	})
}
