package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is an immutable chat event, except for ReadBy which only ever
// grows. ID and Timestamp are assigned by the server at ingestion.
type Message struct {
	ID         uuid.UUID
	ChatID     string
	SenderID   string
	Content    string
	Attachment string
	Language   string
	Timestamp  time.Time
	ReadBy     []string
}

// ReadByContains reports whether the user already saw the message.
func (m Message) ReadByContains(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// MarkReadBy adds the user to the ReadBy set. Returns false if the user was
// already present, making repeated calls no-ops.
func (m *Message) MarkReadBy(userID string) bool {
	if m.ReadByContains(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}
