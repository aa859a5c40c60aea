package app

import (
	"slices"

	"github.com/dkeye/Walkie/internal/core"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type channelState struct {
	meta         domain.Channel
	participants map[core.SessionID]domain.UserID
	broadcaster  core.SessionID
}

// ChannelRegistry holds the fixed channel catalog and the membership of each
// channel. Like Registry it relies on the orchestrator for serialization.
type ChannelRegistry struct {
	order    []domain.ChannelID
	channels map[domain.ChannelID]*channelState
}

func NewChannelRegistry(catalog []domain.Channel) (*ChannelRegistry, error) {
	catalog, err := domain.ValidateCatalog(catalog)
	if err != nil {
		return nil, err
	}
	r := &ChannelRegistry{
		order:    make([]domain.ChannelID, 0, len(catalog)),
		channels: make(map[domain.ChannelID]*channelState, len(catalog)),
	}
	for _, ch := range catalog {
		r.order = append(r.order, ch.ID)
		r.channels[ch.ID] = &channelState{
			meta:         ch,
			participants: make(map[core.SessionID]domain.UserID),
		}
	}
	log.Info().Str("module", "app.channels").Int("channels", len(catalog)).Msg("channel catalog loaded")
	return r, nil
}

func (r *ChannelRegistry) get(id domain.ChannelID) (*channelState, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, domain.ErrChannelNotFound
	}
	return ch, nil
}

func (r *ChannelRegistry) Get(id domain.ChannelID) (domain.Channel, error) {
	ch, err := r.get(id)
	if err != nil {
		return domain.Channel{}, err
	}
	return ch.meta, nil
}

func (r *ChannelRegistry) Exists(id domain.ChannelID) bool {
	_, ok := r.channels[id]
	return ok
}

func (r *ChannelRegistry) Broadcaster(id domain.ChannelID) (core.SessionID, error) {
	ch, err := r.get(id)
	if err != nil {
		return "", err
	}
	return ch.broadcaster, nil
}

// UserOf returns the user id sid joined with.
func (r *ChannelRegistry) UserOf(id domain.ChannelID, sid core.SessionID) (domain.UserID, bool) {
	ch, ok := r.channels[id]
	if !ok {
		return "", false
	}
	uid, ok := ch.participants[sid]
	return uid, ok
}

func (r *ChannelRegistry) AddParticipant(id domain.ChannelID, sid core.SessionID, uid domain.UserID) error {
	ch, err := r.get(id)
	if err != nil {
		return err
	}
	ch.participants[sid] = uid
	log.Info().Str("module", "app.channels").Str("channel", string(id)).Str("sid", string(sid)).Str("user", string(uid)).Msg("participant added")
	return nil
}

// RemoveParticipant drops sid from the channel. If sid was the broadcaster the
// role is cleared as well and wasBroadcaster is true.
func (r *ChannelRegistry) RemoveParticipant(id domain.ChannelID, sid core.SessionID) (uid domain.UserID, wasBroadcaster bool, err error) {
	ch, err := r.get(id)
	if err != nil {
		return "", false, err
	}
	uid, ok := ch.participants[sid]
	if !ok {
		return "", false, domain.ErrNotAMember
	}
	delete(ch.participants, sid)
	if ch.broadcaster == sid {
		ch.broadcaster = ""
		wasBroadcaster = true
	}
	log.Info().Str("module", "app.channels").Str("channel", string(id)).Str("sid", string(sid)).Bool("was_broadcaster", wasBroadcaster).Msg("participant removed")
	return uid, wasBroadcaster, nil
}

// SetBroadcaster replaces the broadcaster. An empty sid clears it; a non-empty
// sid must already be a participant.
func (r *ChannelRegistry) SetBroadcaster(id domain.ChannelID, sid core.SessionID) error {
	ch, err := r.get(id)
	if err != nil {
		return err
	}
	if sid != "" {
		if _, ok := ch.participants[sid]; !ok {
			return domain.ErrNotAMember
		}
	}
	ch.broadcaster = sid
	return nil
}

// Participants lists the channel's connections except exclude, sorted.
func (r *ChannelRegistry) Participants(id domain.ChannelID, exclude core.SessionID) []core.SessionID {
	ch, ok := r.channels[id]
	if !ok {
		return nil
	}
	out := lo.Without(lo.Keys(ch.participants), exclude)
	slices.Sort(out)
	return out
}

func (r *ChannelRegistry) Snapshot(id domain.ChannelID) (core.ChannelSnapshot, error) {
	ch, err := r.get(id)
	if err != nil {
		return core.ChannelSnapshot{}, err
	}
	parts := make([]core.ParticipantDTO, 0, len(ch.participants))
	for sid, uid := range ch.participants {
		parts = append(parts, core.ParticipantDTO{UserID: uid, SocketID: sid})
	}
	slices.SortFunc(parts, func(a, b core.ParticipantDTO) int {
		switch {
		case a.SocketID < b.SocketID:
			return -1
		case a.SocketID > b.SocketID:
			return 1
		}
		return 0
	})
	return core.ChannelSnapshot{
		ID:           ch.meta.ID,
		Name:         ch.meta.Name,
		Participants: parts,
		Broadcaster:  ch.broadcaster,
	}, nil
}

func (r *ChannelRegistry) Info(id domain.ChannelID) (core.ChannelInfo, error) {
	ch, err := r.get(id)
	if err != nil {
		return core.ChannelInfo{}, err
	}
	return infoOf(ch), nil
}

// List returns every channel in catalog order.
func (r *ChannelRegistry) List() []core.ChannelInfo {
	return lo.Map(r.order, func(id domain.ChannelID, _ int) core.ChannelInfo {
		return infoOf(r.channels[id])
	})
}

func infoOf(ch *channelState) core.ChannelInfo {
	return core.ChannelInfo{
		ID:               ch.meta.ID,
		Name:             ch.meta.Name,
		ParticipantCount: len(ch.participants),
		HasBroadcaster:   ch.broadcaster != "",
	}
}
