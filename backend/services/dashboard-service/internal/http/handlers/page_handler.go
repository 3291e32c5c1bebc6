package handlers

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"airmonitor/backend/services/dashboard-service/internal/http/templates"
	"airmonitor/backend/services/dashboard-service/internal/service"
)

// DefaultMaxRows caps the readings table when PageOptions leaves it unset.
const DefaultMaxRows = 100

// PageOptions tunes the rendered page.
type PageOptions struct {
	// Live enables the websocket script.
	Live bool
	// MaxRows caps the readings table. Stats and charts still cover every reading.
	MaxRows int
}

// PageHandler renders the HTML dashboard.
type PageHandler struct {
	dashboard Dashboard
	opts      PageOptions
	render    func(buf *bytes.Buffer, page templates.Page) error
	logger    *zap.Logger
}

// NewPageHandler returns handler.
func NewPageHandler(dashboard Dashboard, opts PageOptions, logger *zap.Logger) *PageHandler {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	return &PageHandler{
		dashboard: dashboard,
		opts:      opts,
		render: func(buf *bytes.Buffer, page templates.Page) error {
			return templates.Dashboard.Execute(buf, page)
		},
		logger: logger,
	}
}

// ServeHTTP handles GET /.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	hours, deviceID := window(r)
	ctx := r.Context()

	rs, err := h.dashboard.RecentReadings(ctx, hours, deviceID)
	if err != nil {
		h.fail(w, err)
		return
	}
	devices, err := h.dashboard.DeviceIDs(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}

	summary := service.Summarize(rs)
	rows := rs
	if len(rows) > h.opts.MaxRows {
		rows = rows[:h.opts.MaxRows]
	}
	page := templates.Page{
		Hours:         hours,
		DeviceID:      deviceID,
		Devices:       devices,
		Readings:      rows,
		MaxRows:       h.opts.MaxRows,
		Charts:        templates.BuildCharts(rs),
		TotalReadings: summary.TotalReadings,
		ActiveDevices: summary.ActiveDevices,
		Stats:         statCards(summary),
		Live:          h.opts.Live,
		Token:         r.URL.Query().Get("token"),
	}
	if summary.LatestTimestamp != 0 {
		page.LatestReading = templates.FormatTime(summary.LatestTimestamp)
	}

	var buf bytes.Buffer
	if err := h.render(&buf, page); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("failed to render dashboard", zap.Error(err))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte("Error loading dashboard"))
}

// statCards lists the table columns first, then any other reported metric by name.
func statCards(summary service.Summary) []templates.StatCard {
	var cards []templates.StatCard
	shown := make(map[string]bool)
	for _, c := range templates.Columns {
		shown[c.Metric] = true
		name := c.Metric
		if _, ok := summary.Metrics[name]; !ok && c.Fallback != "" {
			name = c.Fallback
		}
		st, ok := summary.Metrics[name]
		if !ok {
			continue
		}
		shown[name] = true
		cards = append(cards, statCard(c.Label, st, c.Precision))
	}
	for _, name := range summary.MetricNames() {
		if shown[name] {
			continue
		}
		cards = append(cards, statCard(name, summary.Metrics[name], 1))
	}
	return cards
}

func statCard(label string, st service.MetricStats, precision int) templates.StatCard {
	return templates.StatCard{
		Label:  label,
		Latest: templates.FormatValue(st.Latest, precision),
		Min:    templates.FormatValue(st.Min, precision),
		Max:    templates.FormatValue(st.Max, precision),
		Avg:    templates.FormatValue(st.Avg, precision),
	}
}
