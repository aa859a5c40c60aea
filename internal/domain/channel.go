package domain

import "fmt"

type (
	ChannelID   string
	ChannelName string
)

// Channel is a catalog entry. The set of channels is fixed at startup.
type Channel struct {
	ID   ChannelID   `json:"id" mapstructure:"id"`
	Name ChannelName `json:"name" mapstructure:"name"`
}

// DefaultCatalog is used when the config does not list any channels.
func DefaultCatalog() []Channel {
	out := make([]Channel, 0, 5)
	for i := 1; i <= 5; i++ {
		out = append(out, Channel{
			ID:   ChannelID(fmt.Sprintf("channel-%d", i)),
			Name: ChannelName(fmt.Sprintf("Channel %d", i)),
		})
	}
	return out
}

// ValidateCatalog rejects empty and duplicate ids. Names default to the id.
func ValidateCatalog(catalog []Channel) ([]Channel, error) {
	seen := make(map[ChannelID]struct{}, len(catalog))
	out := make([]Channel, 0, len(catalog))
	for _, ch := range catalog {
		if ch.ID == "" {
			return nil, ErrEmptyChannelID
		}
		if _, dup := seen[ch.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChannel, ch.ID)
		}
		seen[ch.ID] = struct{}{}
		if ch.Name == "" {
			ch.Name = ChannelName(ch.ID)
		}
		out = append(out, ch)
	}
	return out, nil
}
