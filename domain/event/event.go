// Package event defines the events fanned out to connected clients.
package event

import "chat-relay/domain"

// Kind discriminates events on the wire.
type Kind string

const (
	KindMessage      Kind = "message"
	KindMessagesRead Kind = "messages_read"
	KindUserTyping   Kind = "user_typing"
	KindOnlineUsers  Kind = "online_users"
	KindError        Kind = "error"
)

type Event interface {
	Kind() Kind
}

// MessageBroadcast carries a persisted message, including every
// server-assigned field, to the chat's room.
type MessageBroadcast struct {
	Message domain.Message
}

func (MessageBroadcast) Kind() Kind { return KindMessage }

// MessagesRead signals that a user has seen everything in a chat.
// One event per markRead call, never one per message.
type MessagesRead struct {
	ChatID string
	UserID string
}

func (MessagesRead) Kind() Kind { return KindMessagesRead }

// UserTyping is transient and never persisted.
type UserTyping struct {
	ChatID   string
	UserID   string
	IsTyping bool
}

func (UserTyping) Kind() Kind { return KindUserTyping }

// Roster is the full set of online user ids, sent to every connection on
// each presence change.
type Roster struct {
	Online []string
}

func (Roster) Kind() Kind { return KindOnlineUsers }

// Failure is delivered only to the connection whose command failed.
type Failure struct {
	Reason string
}

func (Failure) Kind() Kind { return KindError }
