// Package coretest provides an in-memory core.SignalConnection for tests.
package coretest

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/Walkie/internal/core"
)

// FakeSignal records every frame it accepts. Set Full to simulate a
// saturated send queue.
type FakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (f *FakeSignal) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrConnectionClosed
	}
	if f.full {
		return core.ErrBackpressure
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *FakeSignal) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *FakeSignal) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeSignal) SetFull(full bool) {
	f.mu.Lock()
	f.full = full
	f.mu.Unlock()
}

func (f *FakeSignal) Reset() {
	f.mu.Lock()
	f.frames = nil
	f.mu.Unlock()
}

// Events decodes every recorded frame.
func (f *FakeSignal) Events() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(fr, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Types returns the "type" field of every recorded frame in order.
func (f *FakeSignal) Types() []string {
	evs := f.Events()
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		t, _ := ev["type"].(string)
		out = append(out, t)
	}
	return out
}

func (f *FakeSignal) OfType(t string) []map[string]any {
	var out []map[string]any
	for _, ev := range f.Events() {
		if ev["type"] == t {
			out = append(out, ev)
		}
	}
	return out
}
