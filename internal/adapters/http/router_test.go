package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Walkie/internal/adapters/rtc"
	"github.com/dkeye/Walkie/internal/app"
	"github.com/dkeye/Walkie/internal/app/orch"
	"github.com/dkeye/Walkie/internal/config"
	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/core/coretest"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>walkie</h1>"), 0o600))
	return &config.Config{
		Mode:         "test",
		StaticPath:   static,
		Secret:       "test-secret",
		ReadLimit:    65536,
		PingPeriod:   time.Minute,
		PongWait:     2 * time.Minute,
		WriteWait:    time.Second,
		SendBuffer:   32,
		RateLimit:    100,
		RateInterval: time.Second,
		ICEServers:   config.DefaultICEServers(),
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	cfg := testConfig(t)
	channels, err := app.NewChannelRegistry(domain.DefaultCatalog())
	require.NoError(t, err)
	o := orch.New(channels, app.NewDispatcher(app.SimplePolicy{}, app.NewMetrics()))
	ice, err := rtc.BuildICEConfig(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRouter(ctx, cfg, o, ice), o
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthAndIndex(t *testing.T) {
	req := require.New(t)
	r, _ := newTestRouter(t)

	w := get(t, r, "/health")
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"status":"ok"}`, w.Body.String())
	req.NotEmpty(w.Result().Cookies(), "client token cookie is issued")

	w = get(t, r, "/")
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), "walkie")
}

func TestListChannels(t *testing.T) {
	req := require.New(t)
	r, o := newTestRouter(t)

	// Given one listener and a broadcaster in channel-2
	for _, sid := range []string{"a", "b"} {
		req.NoError(o.Connect(core.SessionID(sid), &coretest.FakeSignal{}, nil))
		_, err := o.JoinChannel(core.SessionID(sid), "channel-2", domain.UserID("u-"+sid))
		req.NoError(err)
	}
	req.NoError(o.BecomeBroadcaster("a", "channel-2"))

	w := get(t, r, "/api/channels")
	req.Equal(http.StatusOK, w.Code)

	var got []map[string]any
	req.NoError(json.Unmarshal(w.Body.Bytes(), &got))
	req.Len(got, 5)
	req.Equal("channel-1", got[0]["id"])
	req.Equal("Channel 1", got[0]["name"])
	req.EqualValues(0, got[0]["participantCount"])
	req.Equal(false, got[0]["hasBroadcaster"])
	req.Equal("channel-2", got[1]["id"])
	req.EqualValues(2, got[1]["participantCount"])
	req.Equal(true, got[1]["hasBroadcaster"])
}

func TestGetChannel(t *testing.T) {
	req := require.New(t)
	r, _ := newTestRouter(t)

	w := get(t, r, "/api/channels/channel-3")
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"id":"channel-3","name":"Channel 3","participantCount":0,"hasBroadcaster":false}`, w.Body.String())

	w = get(t, r, "/api/channels/nope")
	req.Equal(http.StatusNotFound, w.Code)
	req.JSONEq(`{"error":"Channel not found"}`, w.Body.String())
}

func TestICEServers(t *testing.T) {
	req := require.New(t)
	r, _ := newTestRouter(t)

	w := get(t, r, "/api/ice-servers")
	req.Equal(http.StatusOK, w.Code)

	var got struct {
		ICEServers []struct {
			URLs []string `json:"urls"`
		} `json:"iceServers"`
		Policy string `json:"iceTransportPolicy"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &got))
	req.Len(got.ICEServers, 2)
	req.Equal([]string{"stun:stun.l.google.com:19302"}, got.ICEServers[0].URLs)
	req.Equal("all", got.Policy)
}

func TestStats(t *testing.T) {
	req := require.New(t)
	r, o := newTestRouter(t)
	req.NoError(o.Connect("a", &coretest.FakeSignal{}, nil))
	o.Offer("a", "missing", json.RawMessage(`{}`), "")

	w := get(t, r, "/api/stats")
	req.Equal(http.StatusOK, w.Code)
	var got StatsResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &got))
	req.Equal(1, got.Connections)
	req.Equal(uint64(1), got.Counters[app.DropUnknownChannel])
}

func readType(t *testing.T, ws *websocket.Conn, typ string) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var m map[string]any
		require.NoError(t, ws.ReadJSON(&m))
		if m["type"] == typ {
			return m
		}
	}
}

func TestSignalWebSocket_SharesClientToken(t *testing.T) {
	req := require.New(t)
	r, o := newTestRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	// Given a browser that already has a client token cookie
	jar, err := cookiejar.New(nil)
	req.NoError(err)
	client := &http.Client{Jar: jar}
	resp, err := client.Get(srv.URL + "/health")
	req.NoError(err)
	req.NoError(resp.Body.Close())

	dialer := websocket.Dialer{Jar: jar, HandshakeTimeout: 2 * time.Second}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"

	// When two tabs connect and join without an explicit user id
	tab1, _, err := dialer.Dial(url, nil)
	req.NoError(err)
	defer tab1.Close()
	tab2, _, err := dialer.Dial(url, nil)
	req.NoError(err)
	defer tab2.Close()

	hello1 := readType(t, tab1, "connected")
	hello2 := readType(t, tab2, "connected")
	req.NotEqual(hello1["socketId"], hello2["socketId"])

	req.NoError(tab1.WriteJSON(map[string]any{"type": "join-channel", "channelId": "channel-1"}))
	readType(t, tab1, "channel-joined")
	req.NoError(tab2.WriteJSON(map[string]any{"type": "join-channel", "channelId": "channel-1"}))
	joined := readType(t, tab2, "channel-joined")

	// Then both share the same user id but keep distinct socket ids
	participants := joined["participants"].([]any)
	req.Len(participants, 2)
	p0 := participants[0].(map[string]any)
	p1 := participants[1].(map[string]any)
	req.NotEmpty(p0["userId"])
	req.Equal(p0["userId"], p1["userId"])
	req.NotEqual(p0["socketId"], p1["socketId"])

	// And closing a tab disconnects it
	req.NoError(tab2.Close())
	left := readType(t, tab1, "user-left")
	req.Equal(hello2["socketId"], left["socketId"])
	req.Eventually(func() bool { return o.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}
