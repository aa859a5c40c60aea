package signal

import (
	"encoding/json"

	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/domain"
)

type relayPayload struct {
	ChannelID domain.ChannelID `json:"channelId"`
	TargetID  core.SessionID   `json:"targetId"`
	Offer     json.RawMessage  `json:"offer"`
	Answer    json.RawMessage  `json:"answer"`
	Candidate json.RawMessage  `json:"candidate"`
}

func (ctl *SignalWSController) handleOffer(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p relayPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.Orch.Offer(sid, p.ChannelID, p.Offer, p.TargetID)
}

func (ctl *SignalWSController) handleAnswer(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p relayPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.Orch.Answer(sid, p.ChannelID, p.Answer, p.TargetID)
}

func (ctl *SignalWSController) handleCandidate(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p relayPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.Orch.Candidate(sid, p.ChannelID, p.Candidate, p.TargetID)
}
