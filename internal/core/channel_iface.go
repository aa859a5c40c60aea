package core

import "github.com/dkeye/Walkie/internal/domain"

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

// ParticipantDTO is a read-only view for APIs (no transport fields).
type ParticipantDTO struct {
	UserID   domain.UserID `json:"userId"`
	SocketID SessionID     `json:"socketId"`
}

// ChannelSnapshot is a copy of a channel's state. Mutating it has no effect
// on the registry.
type ChannelSnapshot struct {
	ID           domain.ChannelID   `json:"id"`
	Name         domain.ChannelName `json:"name"`
	Participants []ParticipantDTO   `json:"participants"`
	Broadcaster  SessionID          `json:"broadcaster,omitempty"`
}

func (s ChannelSnapshot) ParticipantCount() int { return len(s.Participants) }
func (s ChannelSnapshot) HasBroadcaster() bool  { return s.Broadcaster != "" }

// ChannelInfo is what the reporting endpoints return.
type ChannelInfo struct {
	ID               domain.ChannelID   `json:"id"`
	Name             domain.ChannelName `json:"name"`
	ParticipantCount int                `json:"participantCount"`
	HasBroadcaster   bool               `json:"hasBroadcaster"`
}
