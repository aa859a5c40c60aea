package core

import (
	"encoding/json"

	"github.com/dkeye/Walkie/internal/domain"
	"github.com/samber/lo"
)

// Outbound event names. Inbound names live in the signal adapter.
const (
	EventConnected          = "connected"
	EventChannelJoined      = "channel-joined"
	EventChannelLeft        = "channel-left"
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventBroadcasterChanged = "broadcaster-changed"
	EventOffer              = "webrtc-offer"
	EventAnswer             = "webrtc-answer"
	EventCandidate          = "ice-candidate"
	EventError              = "error"
)

type ConnectedEvent struct {
	Type     string    `json:"type"`
	SocketID SessionID `json:"socketId"`
}

type ChannelJoinedEvent struct {
	Type         string             `json:"type"`
	ChannelID    domain.ChannelID   `json:"channelId"`
	ChannelName  domain.ChannelName `json:"channelName"`
	Participants []ParticipantDTO   `json:"participants"`
	// Broadcaster is null when nobody holds the channel.
	Broadcaster *SessionID `json:"broadcaster"`
}

type ChannelLeftEvent struct {
	Type      string           `json:"type"`
	ChannelID domain.ChannelID `json:"channelId"`
}

// MemberEvent carries both user-joined and user-left.
type MemberEvent struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	SocketID SessionID     `json:"socketId"`
}

type BroadcasterChangedEvent struct {
	Type              string         `json:"type"`
	BroadcasterID     *SessionID     `json:"broadcasterId"`
	BroadcasterUserID *domain.UserID `json:"broadcasterUserId"`
}

type OfferEvent struct {
	Type   string          `json:"type"`
	Offer  json.RawMessage `json:"offer"`
	FromID SessionID       `json:"fromId"`
}

type AnswerEvent struct {
	Type   string          `json:"type"`
	Answer json.RawMessage `json:"answer"`
	FromID SessionID       `json:"fromId"`
}

type CandidateEvent struct {
	Type      string          `json:"type"`
	Candidate json.RawMessage `json:"candidate"`
	FromID    SessionID       `json:"fromId"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewChannelJoined(s ChannelSnapshot) ChannelJoinedEvent {
	ev := ChannelJoinedEvent{
		Type:         EventChannelJoined,
		ChannelID:    s.ID,
		ChannelName:  s.Name,
		Participants: s.Participants,
	}
	if s.Broadcaster != "" {
		ev.Broadcaster = lo.ToPtr(s.Broadcaster)
	}
	return ev
}

// NewBroadcasterChanged with an empty sid reports that nobody broadcasts.
func NewBroadcasterChanged(sid SessionID, uid domain.UserID) BroadcasterChangedEvent {
	ev := BroadcasterChangedEvent{Type: EventBroadcasterChanged}
	if sid != "" {
		ev.BroadcasterID = &sid
		ev.BroadcasterUserID = &uid
	}
	return ev
}

func NewError(msg string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: msg}
}
