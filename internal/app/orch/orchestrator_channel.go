package orch

import (
	"github.com/dkeye/Walkie/internal/app"
	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/rs/zerolog/log"
)

// JoinChannel moves sid into channelID. A connection already in a channel
// (the same one included) leaves it first, so it is never a member of two
// channels. The joiner receives channel-joined before any later event.
func (o *Orchestrator) JoinChannel(sid core.SessionID, channelID domain.ChannelID, uid domain.UserID) (core.ChannelSnapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.Channels.Exists(channelID) {
		return core.ChannelSnapshot{}, domain.ErrChannelNotFound
	}
	st, err := o.Connections.Lookup(sid)
	if err != nil {
		return core.ChannelSnapshot{}, err
	}
	if st.InChannel() {
		from := o.leaveLocked(st)
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("from_channel", string(from)).Msg("left channel before join")
	}

	if err := o.Channels.AddParticipant(channelID, sid, uid); err != nil {
		return core.ChannelSnapshot{}, err
	}
	st.ChannelID = channelID
	st.UserID = uid
	st.IsBroadcaster = false

	o.sendTo(core.MemberEvent{Type: core.EventUserJoined, UserID: uid, SocketID: sid},
		o.Channels.Participants(channelID, sid)...)

	snap, err := o.Channels.Snapshot(channelID)
	if err != nil {
		return core.ChannelSnapshot{}, err
	}
	o.sendTo(core.NewChannelJoined(snap), sid)

	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("channel", string(channelID)).Str("user", string(uid)).Msg("joined channel")
	return snap, nil
}

// LeaveChannel takes sid out of its channel without closing the connection.
// It reports false when sid was not in a channel.
func (o *Orchestrator) LeaveChannel(sid core.SessionID) (domain.ChannelID, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, err := o.Connections.Lookup(sid)
	if err != nil || !st.InChannel() {
		return "", false
	}
	channelID := o.leaveLocked(st)
	o.sendTo(core.ChannelLeftEvent{Type: core.EventChannelLeft, ChannelID: channelID}, sid)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("channel", string(channelID)).Msg("left channel")
	return channelID, true
}

// BecomeBroadcaster makes sid the broadcaster of channelID. The last request
// wins: a previous broadcaster is demoted without a dedicated notice.
func (o *Orchestrator) BecomeBroadcaster(sid core.SessionID, channelID domain.ChannelID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, err := o.Connections.Lookup(sid)
	if err != nil || st.ChannelID != channelID || !st.InChannel() {
		return domain.ErrNotAMember
	}

	prev, err := o.Channels.Broadcaster(channelID)
	if err != nil {
		return err
	}
	if prev != "" && prev != sid {
		if p, err := o.Connections.Lookup(prev); err == nil {
			p.IsBroadcaster = false
		}
	}
	if err := o.Channels.SetBroadcaster(channelID, sid); err != nil {
		return err
	}
	st.IsBroadcaster = true

	o.sendTo(core.NewBroadcasterChanged(sid, st.UserID), o.Channels.Participants(channelID, "")...)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("channel", string(channelID)).Str("previous", string(prev)).Msg("broadcaster changed")
	return nil
}

// StopBroadcasting clears the broadcaster if sid holds the role. Anything
// else is ignored and reported as false.
func (o *Orchestrator) StopBroadcasting(sid core.SessionID, channelID domain.ChannelID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	current, err := o.Channels.Broadcaster(channelID)
	if err != nil || current == "" || current != sid {
		return false
	}
	if err := o.Channels.SetBroadcaster(channelID, ""); err != nil {
		return false
	}
	if st, err := o.Connections.Lookup(sid); err == nil {
		st.IsBroadcaster = false
	}

	o.sendTo(core.NewBroadcasterChanged("", ""), o.Channels.Participants(channelID, "")...)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("channel", string(channelID)).Msg("broadcasting stopped")
	return true
}

// Disconnect drops every trace of sid. Safe to call more than once.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, err := o.Connections.Lookup(sid)
	if err != nil {
		return
	}
	if st.InChannel() {
		o.leaveLocked(st)
	}
	o.Connections.Remove(sid)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Int("connections", o.Connections.Len()).Msg("disconnected")
}

// leaveLocked removes st from its channel and notifies the members left
// behind. Caller holds the write lock.
func (o *Orchestrator) leaveLocked(st *app.ConnectionState) domain.ChannelID {
	channelID := st.ChannelID
	st.ChannelID = ""
	st.UserID = ""
	st.IsBroadcaster = false

	uid, wasBroadcaster, err := o.Channels.RemoveParticipant(channelID, st.SID)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Str("sid", string(st.SID)).Str("channel", string(channelID)).Msg("connection state out of sync with channel")
		return channelID
	}

	rest := o.Channels.Participants(channelID, "")
	if wasBroadcaster {
		o.sendTo(core.NewBroadcasterChanged("", ""), rest...)
	}
	o.sendTo(core.MemberEvent{Type: core.EventUserLeft, UserID: uid, SocketID: st.SID}, rest...)
	return channelID
}
