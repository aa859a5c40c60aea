package core

import "errors"

// Frame is a raw encoded event ready to be written to the wire.
type Frame []byte

// SessionID identifies one live transport connection (the "socket id").
type SessionID string

var (
	ErrBackpressure     = errors.New("backpressure")
	ErrConnectionClosed = errors.New("connection closed")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
