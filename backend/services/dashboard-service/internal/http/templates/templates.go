// Package templates holds the server-rendered dashboard page.
package templates

import (
	"embed"
	"html/template"
	"sort"
	"strconv"
	"time"

	"airmonitor/backend/libs/readings"
)

//go:embed dashboard.html
var files embed.FS

// Column describes one sensor column of the readings table and its chart.
type Column struct {
	Metric    string
	Label     string
	Precision int
	// Fallback is read when Metric is absent, for firmware that reports pm25.
	Fallback string
	ChartID  string
	Title    string
}

// Columns are the sensors the dashboard shows, in display order.
var Columns = []Column{
	{Metric: "temperature", Label: "Temp (°C)", Precision: 1, ChartID: "temperatureChart", Title: "Temperature (°C)"},
	{Metric: "humidity", Label: "Humidity (%)", Precision: 1, ChartID: "humidityChart", Title: "Humidity (%)"},
	{Metric: "co2", Label: "CO₂ (ppm)", ChartID: "co2Chart", Title: "CO₂ (ppm)"},
	{Metric: "tvoc", Label: "TVOC (ppb)", ChartID: "tvocChart", Title: "TVOC (ppb)"},
	{Metric: "mc2p5", Label: "PM2.5 (μg/m³)", Fallback: "pm25", ChartID: "pm25Chart", Title: "PM2.5 (μg/m³)"},
}

// Value returns the reading's value for c, honouring the fallback metric.
func (c Column) Value(r readings.Reading) (float64, bool) {
	v, ok := r.Values[c.Metric]
	if !ok && c.Fallback != "" {
		v, ok = r.Values[c.Fallback]
	}
	return v, ok
}

// HourOption is one entry of the time range selector.
type HourOption struct {
	Hours int
	Label string
}

// HourOptions lists the selectable time ranges.
var HourOptions = []HourOption{
	{Hours: 1, Label: "Last Hour"},
	{Hours: 6, Label: "Last 6 Hours"},
	{Hours: 24, Label: "Last 24 Hours"},
	{Hours: 168, Label: "Last Week"},
}

// StatCard is a per-metric summary tile.
type StatCard struct {
	Label  string
	Latest string
	Min    string
	Max    string
	Avg    string
}

// Point is one chart sample. X is Unix ms.
type Point struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// Series is the line of one device, oldest point first.
type Series struct {
	DeviceID string  `json:"deviceId"`
	Points   []Point `json:"points"`
}

// Chart is a time-series panel with a line per device.
type Chart struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Metric string   `json:"metric"`
	Series []Series `json:"series"`
}

// Page is the data rendered by the dashboard template. Readings holds at most
// MaxRows table rows; TotalReadings and Stats cover the whole window.
type Page struct {
	Hours         int
	DeviceID      string
	Devices       []string
	Readings      []readings.Reading
	MaxRows       int
	Charts        []Chart
	TotalReadings int
	ActiveDevices int
	LatestReading string
	Stats         []StatCard
	Live          bool
	Token         string
}

// Dashboard is the parsed page template.
var Dashboard = template.Must(
	template.New("dashboard.html").Funcs(template.FuncMap{
		"columns":     func() []Column { return Columns },
		"hourOptions": func() []HourOption { return HourOptions },
		"cell":        Cell,
		"timestamp":   FormatTime,
	}).ParseFS(files, "dashboard.html"),
)

// Cell formats a reading value for a table column, or "-" when absent.
func Cell(r readings.Reading, c Column) string {
	v, ok := c.Value(r)
	if !ok {
		return "-"
	}
	return FormatValue(v, c.Precision)
}

// BuildCharts groups rs into one chart per column. Devices are sorted by ID
// and a device without a value for a metric gets no line on that chart.
func BuildCharts(rs []readings.Reading) []Chart {
	charts := make([]Chart, 0, len(Columns))
	for _, c := range Columns {
		chart := Chart{ID: c.ChartID, Title: c.Title, Metric: c.Metric, Series: []Series{}}
		index := make(map[string]int)
		for _, r := range rs {
			v, ok := c.Value(r)
			if !ok {
				continue
			}
			i, seen := index[r.DeviceID]
			if !seen {
				i = len(chart.Series)
				index[r.DeviceID] = i
				chart.Series = append(chart.Series, Series{DeviceID: r.DeviceID})
			}
			chart.Series[i].Points = append(chart.Series[i].Points, Point{X: r.Timestamp, Y: v})
		}

		sort.Slice(chart.Series, func(a, b int) bool { return chart.Series[a].DeviceID < chart.Series[b].DeviceID })
		for _, s := range chart.Series {
			pts := s.Points
			sort.SliceStable(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
		}
		charts = append(charts, chart)
	}
	return charts
}

// FormatValue renders v with the given number of decimals.
func FormatValue(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// FormatTime renders a millisecond timestamp for display.
func FormatTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05 UTC")
}
