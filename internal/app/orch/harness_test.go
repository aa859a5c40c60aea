package orch

import (
	"testing"

	"github.com/dkeye/Walkie/internal/app"
	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/core/coretest"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/stretchr/testify/require"
)

type harness struct {
	o       *Orchestrator
	metrics *app.Metrics
	conns   map[core.SessionID]*coretest.FakeSignal
	kicked  map[core.SessionID]int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	channels, err := app.NewChannelRegistry(domain.DefaultCatalog())
	require.NoError(t, err)
	m := app.NewMetrics()
	return &harness{
		o:       New(channels, app.NewDispatcher(app.DropPolicy{}, m)),
		metrics: m,
		conns:   make(map[core.SessionID]*coretest.FakeSignal),
		kicked:  make(map[core.SessionID]int),
	}
}

// connect registers sid and discards the connected greeting.
func (h *harness) connect(t *testing.T, sid core.SessionID) *coretest.FakeSignal {
	t.Helper()
	sig := &coretest.FakeSignal{}
	require.NoError(t, h.o.Connect(sid, sig, func() { h.kicked[sid]++ }))
	sig.Reset()
	h.conns[sid] = sig
	return sig
}

func (h *harness) join(t *testing.T, sid core.SessionID, ch domain.ChannelID, uid domain.UserID) core.ChannelSnapshot {
	t.Helper()
	snap, err := h.o.JoinChannel(sid, ch, uid)
	require.NoError(t, err)
	return snap
}

func (h *harness) resetAll() {
	for _, sig := range h.conns {
		sig.Reset()
	}
}

// checkInvariants asserts the four data-model invariants over the whole state.
func (h *harness) checkInvariants(t *testing.T) {
	t.Helper()
	o := h.o
	o.mu.RLock()
	defer o.mu.RUnlock()

	o.Connections.Each(func(st *app.ConnectionState) {
		if !st.InChannel() {
			require.False(t, st.IsBroadcaster, "sid %s broadcasting outside a channel", st.SID)
			return
		}
		uid, ok := o.Channels.UserOf(st.ChannelID, st.SID)
		require.True(t, ok, "sid %s missing from channel %s", st.SID, st.ChannelID)
		require.Equal(t, st.UserID, uid)
		b, err := o.Channels.Broadcaster(st.ChannelID)
		require.NoError(t, err)
		require.Equal(t, st.IsBroadcaster, b == st.SID, "broadcaster flag mismatch for %s", st.SID)
	})

	for _, info := range o.Channels.List() {
		snap, err := o.Channels.Snapshot(info.ID)
		require.NoError(t, err)
		brInParticipants := false
		for _, p := range snap.Participants {
			st, err := o.Connections.Lookup(p.SocketID)
			require.NoError(t, err, "stale participant %s in %s", p.SocketID, info.ID)
			require.Equal(t, info.ID, st.ChannelID)
			if p.SocketID == snap.Broadcaster {
				brInParticipants = true
			}
		}
		if snap.Broadcaster != "" {
			require.True(t, brInParticipants, "broadcaster of %s is not a participant", info.ID)
		}
	}
}
