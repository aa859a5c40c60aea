package app

import (
	"maps"
	"sync"
)

// Counter names for messages the relay drops without telling the sender.
const (
	DropUnknownChannel = "relay_dropped_unknown_channel"
	DropNotBroadcaster = "relay_dropped_not_broadcaster"
	DropMissingTarget  = "relay_dropped_missing_target"
	DropUnknownTarget  = "relay_dropped_unknown_target"

	DispatchBackpressure = "dispatch_backpressure"
	DispatchClosed       = "dispatch_closed"
	DispatchKicked       = "dispatch_kicked"
	DispatchMarshal      = "dispatch_marshal_error"
)

// Metrics is a minimal, concurrency-safe counter registry.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func NewMetrics() *Metrics {
	return &Metrics{m: make(map[string]uint64)}
}

func (m *Metrics) Inc(name string) {
	m.mu.Lock()
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.m)
}
