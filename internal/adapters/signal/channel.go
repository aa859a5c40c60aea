package signal

import (
	"errors"

	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/rs/zerolog/log"
)

type channelPayload struct {
	ChannelID domain.ChannelID `json:"channelId"`
}

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		ChannelID domain.ChannelID `json:"channelId"`
		UserID    string           `json:"userId"`
	}
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	uid, err := domain.NewUserID(p.UserID, conn.token)
	if err != nil {
		ctl.sendError(conn, msgInvalidUserID)
		return
	}

	if _, err := ctl.Orch.JoinChannel(sid, p.ChannelID, uid); err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			ctl.sendError(conn, msgChannelNotFound)
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join")
	}
}

// handleLeave leaves the current channel; the socket stays open.
func (ctl *SignalWSController) handleLeave(sid core.SessionID) {
	if _, ok := ctl.Orch.LeaveChannel(sid); !ok {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("leave without channel")
	}
}

func (ctl *SignalWSController) handleBecomeBroadcaster(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p channelPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	if err := ctl.Orch.BecomeBroadcaster(sid, p.ChannelID); err != nil {
		ctl.sendError(conn, msgNotInChannel)
	}
}

// handleStopBroadcasting is silent when sid is not the broadcaster.
func (ctl *SignalWSController) handleStopBroadcasting(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p channelPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.Orch.StopBroadcasting(sid, p.ChannelID)
}
