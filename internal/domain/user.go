// Package domain contains entity without logic, just meta-data
package domain

const MaxUserIDLen = 64

// UserID is supplied by the client on join. It is opaque and not unique:
// two tabs of the same user share it.
type UserID string

// NewUserID validates raw and falls back to fallback when raw is empty.
func NewUserID(raw, fallback string) (UserID, error) {
	if raw == "" {
		raw = fallback
	}
	if len(raw) > MaxUserIDLen {
		return "", ErrUserIDTooLong
	}
	return UserID(raw), nil
}
