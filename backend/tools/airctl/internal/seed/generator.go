// Package seed generates plausible readings for trying out the dashboard.
package seed

import (
	"math"
	"time"

	"airmonitor/backend/libs/readings"
)

// Profile is a simulated device: a baseline per metric and the full width of its noise.
type Profile struct {
	DeviceID   string
	Baselines  map[string]float64
	Variations map[string]float64
	Kitchen    bool
}

// Profiles are the three rooms the seeder simulates.
var Profiles = []Profile{
	{
		DeviceID:   "air-monitor-living-room",
		Baselines:  map[string]float64{"temperature": 22.5, "humidity": 45, "co2": 450, "tvoc": 120, "mc2p5": 8},
		Variations: map[string]float64{"temperature": 3, "humidity": 15, "co2": 200, "tvoc": 80, "mc2p5": 5},
	},
	{
		DeviceID:   "air-monitor-bedroom",
		Baselines:  map[string]float64{"temperature": 20.0, "humidity": 50, "co2": 380, "tvoc": 90, "mc2p5": 6},
		Variations: map[string]float64{"temperature": 2.5, "humidity": 12, "co2": 150, "tvoc": 60, "mc2p5": 4},
	},
	{
		DeviceID:   "air-monitor-kitchen",
		Baselines:  map[string]float64{"temperature": 24.0, "humidity": 55, "co2": 520, "tvoc": 180, "mc2p5": 12},
		Variations: map[string]float64{"temperature": 4, "humidity": 20, "co2": 300, "tvoc": 120, "mc2p5": 8},
		Kitchen:    true,
	},
}

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Generator produces readings for a set of profiles.
type Generator struct {
	Profiles []Profile
	Rand     Source
	// Location decides which hours count as daytime and meal times.
	Location *time.Location
}

// Activity returns the occupancy multiplier applied to co2, tvoc and mc2p5.
func Activity(t time.Time, kitchen bool) float64 {
	hour := t.Hour()
	m := 1.0
	if hour >= 8 && hour <= 22 {
		m = 1.2
	}
	if kitchen && mealTime(hour) {
		m = 1.5
	}
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		m *= 0.9
	}
	return m
}

func mealTime(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 12 && hour <= 14) || (hour >= 18 && hour <= 20)
}

// Reading simulates one sample of p at t.
func (g *Generator) Reading(p Profile, t time.Time) readings.Reading {
	loc := g.Location
	if loc == nil {
		loc = time.UTC
	}
	m := Activity(t.In(loc), p.Kitchen)

	return readings.Reading{
		DeviceID:  p.DeviceID,
		Timestamp: t.UnixMilli(),
		Values: map[string]float64{
			"temperature": round1(p.Baselines["temperature"] + g.noise(p.Variations["temperature"])),
			"humidity":    clamp(round1(p.Baselines["humidity"]+g.noise(p.Variations["humidity"])), 20, 80),
			"co2":         math.Max(300, math.Round(p.Baselines["co2"]*m+g.noise(p.Variations["co2"]))),
			"tvoc":        math.Max(10, math.Round(p.Baselines["tvoc"]*m+g.noise(p.Variations["tvoc"]))),
			"mc2p5":       math.Max(1, round1(p.Baselines["mc2p5"]*m+g.noise(p.Variations["mc2p5"]))),
		},
	}
}

// Generate returns one reading per profile for every interval step in [from, to].
func (g *Generator) Generate(from, to time.Time, interval time.Duration) []readings.Reading {
	if interval <= 0 || to.Before(from) {
		return nil
	}
	steps := int(to.Sub(from)/interval) + 1
	out := make([]readings.Reading, 0, steps*len(g.Profiles))
	for t := from; !t.After(to); t = t.Add(interval) {
		for _, p := range g.Profiles {
			out = append(out, g.Reading(p, t))
		}
	}
	return out
}

func (g *Generator) noise(width float64) float64 {
	return (g.Rand.Float64() - 0.5) * width
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
