package signal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Walkie/internal/app"
	"github.com/dkeye/Walkie/internal/app/orch"
	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var errFakeClosed = errors.New("fake ws closed")

// fakeWS is an in-memory wsConn. Frames pushed with send are returned by
// ReadMessage; written text frames are kept for inspection.
type fakeWS struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once

	mu     sync.Mutex
	out    []map[string]any
	pings  int
	limit  int64
	onPong func(string) error
}

func newFakeWS() *fakeWS {
	return &fakeWS{
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeWS) ReadMessage() (int, []byte, error) {
	select {
	case b := <-f.in:
		return websocket.TextMessage, b, nil
	case <-f.closed:
		return 0, nil, errFakeClosed
	}
}

func (f *fakeWS) WriteMessage(mt int, data []byte) error {
	select {
	case <-f.closed:
		return errFakeClosed
	default:
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if mt == websocket.PingMessage {
		f.pings++
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	f.out = append(f.out, m)
	return nil
}

func (f *fakeWS) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeWS) SetReadDeadline(time.Time) error  { return nil }

func (f *fakeWS) SetReadLimit(limit int64) {
	f.mu.Lock()
	f.limit = limit
	f.mu.Unlock()
}

func (f *fakeWS) SetPongHandler(h func(string) error) {
	f.mu.Lock()
	f.onPong = h
	f.mu.Unlock()
}

func (f *fakeWS) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeWS) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeWS) send(t *testing.T, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	f.in <- b
}

func (f *fakeWS) sendRaw(s string) { f.in <- []byte(s) }

func (f *fakeWS) ofType(typ string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []map[string]any
	for _, m := range f.out {
		if m["type"] == typ {
			res = append(res, m)
		}
	}
	return res
}

// waitFor blocks until n frames of typ were written and returns the last one.
func (f *fakeWS) waitFor(t *testing.T, typ string, n int) map[string]any {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.ofType(typ)) >= n }, time.Second, 5*time.Millisecond, "waiting for %q", typ)
	got := f.ofType(typ)
	return got[n-1]
}

type fixture struct {
	ctl     *SignalWSController
	metrics *app.Metrics
	ctx     context.Context
	cancel  context.CancelFunc
}

func testSettings() Settings {
	return Settings{
		ReadLimit:    4096,
		PingPeriod:   time.Hour,
		PongWait:     2 * time.Hour,
		WriteWait:    time.Second,
		SendBuffer:   32,
		RateLimit:    100,
		RateInterval: time.Second,
	}
}

func newFixture(t *testing.T, s Settings) *fixture {
	t.Helper()
	channels, err := app.NewChannelRegistry(domain.DefaultCatalog())
	require.NoError(t, err)
	m := app.NewMetrics()
	o := orch.New(channels, app.NewDispatcher(app.SimplePolicy{}, m))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &fixture{
		ctl:     NewSignalWSController(o, s),
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// dial serves a new fake socket and waits for its greeting.
func (fx *fixture) dial(t *testing.T, token string) (*fakeWS, core.SessionID) {
	t.Helper()
	ws := newFakeWS()
	t.Cleanup(func() { _ = ws.Close() })
	sid := fx.ctl.Serve(fx.ctx, ws, token)
	require.NotEmpty(t, sid)
	hello := ws.waitFor(t, core.EventConnected, 1)
	require.Equal(t, string(sid), hello["socketId"])
	return ws, sid
}
