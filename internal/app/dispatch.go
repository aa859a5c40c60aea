package app

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Walkie/internal/core"
	"github.com/rs/zerolog/log"
)

// Dispatcher fans encoded events out to connections. Delivery is best-effort:
// it never blocks and never reports failures to the caller's state machine.
type Dispatcher struct {
	policy  Policy
	metrics *Metrics
}

func NewDispatcher(policy Policy, metrics *Metrics) *Dispatcher {
	if policy == nil {
		policy = SimplePolicy{}
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Dispatcher{policy: policy, metrics: metrics}
}

func (d *Dispatcher) Metrics() *Metrics { return d.metrics }

func (d *Dispatcher) Deliver(v any, recipients []*ConnectionState) core.PublishResult {
	res := core.PublishResult{}
	if len(recipients) == 0 {
		return res
	}
	frame, err := json.Marshal(v)
	if err != nil {
		d.metrics.Inc(DispatchMarshal)
		log.Error().Err(err).Str("module", "app.dispatch").Msg("marshal event")
		return res
	}
	for _, st := range recipients {
		if err := st.Signal.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, st.SID)
			d.onFailure(st, err)
			continue
		}
		res.SendTo++
	}
	return res
}

func (d *Dispatcher) onFailure(st *ConnectionState, err error) {
	if !errors.Is(err, core.ErrBackpressure) {
		d.metrics.Inc(DispatchClosed)
		log.Debug().Err(err).Str("module", "app.dispatch").Str("sid", string(st.SID)).Msg("send to closed connection")
		return
	}
	d.metrics.Inc(DispatchBackpressure)
	switch d.policy.OnBackPressure(st.SID) {
	case KickMember:
		d.metrics.Inc(DispatchKicked)
		log.Warn().Str("module", "app.dispatch").Str("sid", string(st.SID)).Msg("backpressure, kicking member")
		if st.Cancel != nil {
			st.Cancel()
		}
	case DropFrame:
		log.Warn().Str("module", "app.dispatch").Str("sid", string(st.SID)).Msg("backpressure, frame dropped")
	}
}
