package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"airmonitor/backend/libs/authtoken"
	"airmonitor/backend/libs/readings"
	"airmonitor/backend/services/dashboard-service/internal/http/middleware"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastWithDeviceFilter(t *testing.T) {
	hub := NewHub(time.Second, time.Second, zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	all := dial(t, srv, "")
	kitchen := dial(t, srv, "?device=kitchen")
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(readings.Reading{DeviceID: "bedroom", Timestamp: 1, Values: map[string]float64{"co2": 400}})
	hub.Broadcast(readings.Reading{DeviceID: "kitchen", Timestamp: 2, Values: map[string]float64{"co2": 600}})

	var got readings.Reading
	require.NoError(t, all.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, "bedroom", got.DeviceID)
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, "kitchen", got.DeviceID)

	require.NoError(t, kitchen.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, kitchen.ReadJSON(&got))
	assert.Equal(t, "kitchen", got.DeviceID)
	assert.Equal(t, 600.0, got.Values["co2"])
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(time.Second, time.Second, zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(time.Second, time.Second, zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestHub_LogsTokenSubject(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	tokens := authtoken.NewService("hub-secret", time.Minute)
	token, err := tokens.Issue("wall-display")
	require.NoError(t, err)

	hub := NewHub(time.Second, time.Second, logger)
	srv := httptest.NewServer(middleware.AuthMiddleware(tokens, true, logger)(hub))
	defer srv.Close()
	defer hub.Close()

	dial(t, srv, "?device=kitchen&token="+token)
	connected := func() *observer.ObservedLogs { return logs.FilterMessage("dashboard client connected") }
	require.Eventually(t, func() bool { return connected().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	entries := connected().All()
	fields := entries[0].ContextMap()
	assert.Equal(t, "wall-display", fields["subject"])
	assert.Equal(t, "kitchen", fields["device"])
}
