package domain

import "errors"

var (
	ErrChannelNotFound    = errors.New("channel not found")
	ErrNotAMember         = errors.New("not a member of channel")
	ErrConnectionExists   = errors.New("connection already registered")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrUserIDTooLong      = errors.New("user id too long")
	ErrEmptyChannelID     = errors.New("empty channel id")
	ErrDuplicateChannel   = errors.New("duplicate channel id")
)
