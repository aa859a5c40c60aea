package signal

import (
	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	msgBadPayload      = "bad payload"
	msgRateLimited     = "rate limited"
	msgChannelNotFound = "Channel not found"
	msgNotInChannel    = "Not in channel or channel not found"
	msgInvalidUserID   = "invalid user id"
)

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleWhoAmI(
	sid core.SessionID,
	conn *WsSignalConn,
) {
	view, err := ctl.Orch.Connection(sid)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("whoami")
		return
	}
	resp := struct {
		Type          string            `json:"type"`
		SocketID      core.SessionID    `json:"socketId"`
		ChannelID     *domain.ChannelID `json:"channelId"`
		IsBroadcaster bool              `json:"isBroadcaster"`
	}{
		Type:          "whoami",
		SocketID:      view.SID,
		IsBroadcaster: view.IsBroadcaster,
	}
	if view.ChannelID != "" {
		resp.ChannelID = &view.ChannelID
	}
	ctl.sendJSON(conn, resp)
}
