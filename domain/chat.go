package domain

import (
	"fmt"
	"time"
)

type ChatType string

const (
	PrivateChat ChatType = "private"
	GroupChat   ChatType = "group"
	ChannelChat ChatType = "channel"
)

type PostPolicy string

const (
	PostAll   PostPolicy = "all"
	PostAdmin PostPolicy = "admin"
)

type ChatSettings struct {
	CanAddMembers   bool
	CanPostMessages PostPolicy
}

// SettingsOverride carries caller-supplied settings fields. Nil fields keep
// the defaults for the chat type.
type SettingsOverride struct {
	CanAddMembers   *bool
	CanPostMessages *PostPolicy
}

// DefaultSettings returns the settings a chat of the given type starts with.
func DefaultSettings(t ChatType) ChatSettings {
	s := ChatSettings{CanPostMessages: PostAll}
	if t == GroupChat {
		s.CanAddMembers = true
	}
	if t == ChannelChat {
		s.CanPostMessages = PostAdmin
	}
	return s
}

// Merge applies the non-nil override fields over the settings.
func (s ChatSettings) Merge(o SettingsOverride) ChatSettings {
	if o.CanAddMembers != nil {
		s.CanAddMembers = *o.CanAddMembers
	}
	if o.CanPostMessages != nil {
		s.CanPostMessages = *o.CanPostMessages
	}
	return s
}

type Chat struct {
	ID           string
	Type         ChatType
	Name         string
	Participants []string
	CreatedBy    string
	CreatedAt    time.Time
	Settings     ChatSettings
}

func (c Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// PairKey builds the canonical key for an unordered pair of participants.
// Used to enforce the one-private-chat-per-pair invariant.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s:%s", a, b)
}
