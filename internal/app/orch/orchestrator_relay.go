package orch

import (
	"encoding/json"

	"github.com/dkeye/Walkie/internal/app"
	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/rs/zerolog/log"
)

// Offer forwards a negotiation offer from the channel's broadcaster, to target
// when given, otherwise to every other participant. Offers from anyone else
// are dropped without a reply.
func (o *Orchestrator) Offer(from core.SessionID, channelID domain.ChannelID, offer json.RawMessage, target core.SessionID) core.PublishResult {
	o.mu.RLock()
	defer o.mu.RUnlock()

	broadcaster, err := o.Channels.Broadcaster(channelID)
	if err != nil {
		return o.drop(app.DropUnknownChannel, core.EventOffer, from, channelID)
	}
	if broadcaster == "" || broadcaster != from {
		return o.drop(app.DropNotBroadcaster, core.EventOffer, from, channelID)
	}
	ev := core.OfferEvent{Type: core.EventOffer, Offer: offer, FromID: from}
	return o.forward(ev, core.EventOffer, from, channelID, target)
}

// Answer is unicast to target. Any connection may answer.
func (o *Orchestrator) Answer(from core.SessionID, channelID domain.ChannelID, answer json.RawMessage, target core.SessionID) core.PublishResult {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.Channels.Exists(channelID) {
		return o.drop(app.DropUnknownChannel, core.EventAnswer, from, channelID)
	}
	if target == "" {
		return o.drop(app.DropMissingTarget, core.EventAnswer, from, channelID)
	}
	ev := core.AnswerEvent{Type: core.EventAnswer, Answer: answer, FromID: from}
	return o.forward(ev, core.EventAnswer, from, channelID, target)
}

// Candidate is unicast to target when given, otherwise sent to the rest of
// the channel.
func (o *Orchestrator) Candidate(from core.SessionID, channelID domain.ChannelID, candidate json.RawMessage, target core.SessionID) core.PublishResult {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.Channels.Exists(channelID) {
		return o.drop(app.DropUnknownChannel, core.EventCandidate, from, channelID)
	}
	ev := core.CandidateEvent{Type: core.EventCandidate, Candidate: candidate, FromID: from}
	return o.forward(ev, core.EventCandidate, from, channelID, target)
}

func (o *Orchestrator) forward(ev any, kind string, from core.SessionID, channelID domain.ChannelID, target core.SessionID) core.PublishResult {
	if target != "" {
		st, err := o.Connections.Lookup(target)
		if err != nil {
			return o.drop(app.DropUnknownTarget, kind, from, channelID)
		}
		return o.Dispatch.Deliver(ev, []*app.ConnectionState{st})
	}
	return o.sendTo(ev, o.Channels.Participants(channelID, from)...)
}

func (o *Orchestrator) drop(reason, kind string, from core.SessionID, channelID domain.ChannelID) core.PublishResult {
	o.Dispatch.Metrics().Inc(reason)
	log.Debug().
		Str("module", "app.orch").
		Str("sid", string(from)).
		Str("channel", string(channelID)).
		Str("kind", kind).
		Str("reason", reason).
		Msg("relay message dropped")
	return core.PublishResult{}
}
