package app

import (
	"context"

	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/rs/zerolog/log"
)

// ConnectionState is the per-connection bookkeeping owned by the orchestrator.
type ConnectionState struct {
	SID           core.SessionID
	ChannelID     domain.ChannelID
	UserID        domain.UserID
	IsBroadcaster bool

	Signal core.SignalConnection
	Cancel context.CancelFunc
}

// InChannel reports whether the connection currently belongs to a channel.
func (s *ConnectionState) InChannel() bool { return s.ChannelID != "" }

// Registry maps live connections to their state.
// It does no locking of its own: the orchestrator serializes all access.
type Registry struct {
	sessions map[core.SessionID]*ConnectionState
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*ConnectionState),
	}
}

func (r *Registry) Register(sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc) (*ConnectionState, error) {
	if _, ok := r.sessions[sid]; ok {
		return nil, domain.ErrConnectionExists
	}
	st := &ConnectionState{SID: sid, Signal: sig, Cancel: cancel}
	r.sessions[sid] = st
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Msg("registered connection")
	return st, nil
}

func (r *Registry) Lookup(sid core.SessionID) (*ConnectionState, error) {
	st, ok := r.sessions[sid]
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	return st, nil
}

// Remove is a no-op for unknown ids.
func (r *Registry) Remove(sid core.SessionID) {
	if _, ok := r.sessions[sid]; !ok {
		return
	}
	delete(r.sessions, sid)
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed connection")
}

func (r *Registry) Len() int { return len(r.sessions) }

// Resolve maps ids to live states, skipping ids that are gone.
func (r *Registry) Resolve(sids []core.SessionID) []*ConnectionState {
	out := make([]*ConnectionState, 0, len(sids))
	for _, sid := range sids {
		if st, ok := r.sessions[sid]; ok {
			out = append(out, st)
		}
	}
	return out
}

// Each visits every live connection. Order is unspecified.
func (r *Registry) Each(fn func(*ConnectionState)) {
	for _, st := range r.sessions {
		fn(st)
	}
}
