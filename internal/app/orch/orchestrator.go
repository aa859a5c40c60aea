// Package orch coordinates channel membership, broadcaster election and the
// signaling relay. It is the only writer of the connection and channel
// registries.
package orch

import (
	"context"
	"sync"

	"github.com/dkeye/Walkie/internal/app"
	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator serializes every state transition behind mu. Mutations hold the
// write lock for the whole transition, including enqueueing notifications, so
// clients observe events in the order they were applied. The relay and the
// reporting queries only read and take the read lock.
type Orchestrator struct {
	mu sync.RWMutex

	Connections *app.Registry
	Channels    *app.ChannelRegistry
	Dispatch    *app.Dispatcher
}

func New(channels *app.ChannelRegistry, dispatch *app.Dispatcher) *Orchestrator {
	return &Orchestrator{
		Connections: app.NewRegistry(),
		Channels:    channels,
		Dispatch:    dispatch,
	}
}

// Connect registers a new transport connection with no channel.
func (o *Orchestrator) Connect(sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.Connections.Register(sid, sig, cancel); err != nil {
		return err
	}
	o.sendTo(core.ConnectedEvent{Type: core.EventConnected, SocketID: sid}, sid)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Int("connections", o.Connections.Len()).Msg("connected")
	return nil
}

// sendTo must be called with mu held (read or write).
func (o *Orchestrator) sendTo(v any, sids ...core.SessionID) core.PublishResult {
	return o.Dispatch.Deliver(v, o.Connections.Resolve(sids))
}

// ConnectionView is a copy of a connection's state.
type ConnectionView struct {
	SID           core.SessionID   `json:"socketId"`
	ChannelID     domain.ChannelID `json:"channelId,omitempty"`
	UserID        domain.UserID    `json:"userId,omitempty"`
	IsBroadcaster bool             `json:"isBroadcaster"`
}

func (o *Orchestrator) Connection(sid core.SessionID) (ConnectionView, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st, err := o.Connections.Lookup(sid)
	if err != nil {
		return ConnectionView{}, err
	}
	return ConnectionView{
		SID:           st.SID,
		ChannelID:     st.ChannelID,
		UserID:        st.UserID,
		IsBroadcaster: st.IsBroadcaster,
	}, nil
}

func (o *Orchestrator) ConnectionCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.Connections.Len()
}

func (o *Orchestrator) ListChannels() []core.ChannelInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.Channels.List()
}

func (o *Orchestrator) ChannelInfo(id domain.ChannelID) (core.ChannelInfo, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.Channels.Info(id)
}

func (o *Orchestrator) Snapshot(id domain.ChannelID) (core.ChannelSnapshot, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.Channels.Snapshot(id)
}
