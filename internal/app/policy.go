package app

import (
	"fmt"

	"github.com/dkeye/Walkie/internal/core"
)

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickMember
)

type Policy interface {
	OnBackPressure(sid core.SessionID) BackpressureAction
}

// SimplePolicy kicks any member whose queue is full.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.SessionID) BackpressureAction {
	return KickMember
}

// DropPolicy drops the frame and keeps the member.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.SessionID) BackpressureAction {
	return DropFrame
}

func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return SimplePolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", name)
}
