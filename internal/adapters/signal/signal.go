// Package signal is the WebSocket adapter: it owns one connection per socket,
// decodes the flat JSON envelope and drives the orchestrator.
package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Walkie/internal/app/orch"
	"github.com/dkeye/Walkie/internal/config"
	"github.com/dkeye/Walkie/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Settings holds transport limits for a signal connection.
type Settings struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	SendBuffer   int
	RateLimit    int
	RateInterval time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ReadLimit:    cfg.ReadLimit,
		PingPeriod:   cfg.PingPeriod,
		PongWait:     cfg.PongWait,
		WriteWait:    cfg.WriteWait,
		SendBuffer:   cfg.SendBuffer,
		RateLimit:    cfg.RateLimit,
		RateInterval: cfg.RateInterval,
	}
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	limiter  *EventRateLimiter
	settings Settings
}

func NewSignalWSController(o *orch.Orchestrator, s Settings) *SignalWSController {
	return &SignalWSController{
		Orch:     o,
		limiter:  NewEventRateLimiter(s.RateLimit, s.RateInterval),
		settings: s,
	}
}

// wsConn is the subset of *websocket.Conn the pumps use.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// WsSignalConn implements core.SignalConnection on top of a websocket.
type WsSignalConn struct {
	conn  wsConn
	send  chan core.Frame
	token string

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(conn wsConn, token string, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn:  conn,
		send:  make(chan core.Frame, buffer),
		token: token,
	}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ctl.Serve(ctx, ws, token)
}

// Serve registers conn under a fresh connection id and starts its pumps.
// token is the default user id for joins that do not carry one.
func (ctl *SignalWSController) Serve(ctx context.Context, ws wsConn, token string) core.SessionID {
	sid := core.SessionID(uuid.NewString())
	conn := newWsSignalConn(ws, token, ctl.settings.SendBuffer)

	ctx, cancel := context.WithCancel(ctx)
	if err := ctl.Orch.Connect(sid, conn, cancel); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("connect")
		cancel()
		conn.Close()
		return ""
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(cancel, sid, conn)
	return sid
}
