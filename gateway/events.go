package gateway

import (
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// Inbound frame types accepted on the duplex connection.
const (
	frameAuthenticate = "authenticate"
	frameJoinChat     = "join_chat"
	frameSendMessage  = "send_message"
	frameTyping       = "typing"
	frameMarkRead     = "mark_read"
)

// ClientFrame is the envelope for every inbound connection event. Unused
// fields stay empty depending on Type.
type ClientFrame struct {
	Type       string `json:"type"`
	Token      string `json:"token,omitempty"`
	ChatID     string `json:"chat_id,omitempty"`
	Content    string `json:"content,omitempty"`
	Attachment string `json:"attachment,omitempty"`
	IsTyping   bool   `json:"is_typing,omitempty"`
}

// MessagePayload is the wire shape of a persisted message, server-assigned
// fields included.
type MessagePayload struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chat_id"`
	SenderID   string    `json:"sender_id"`
	Content    string    `json:"content"`
	Attachment string    `json:"attachment,omitempty"`
	Language   string    `json:"language,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	ReadBy     []string  `json:"read_by"`
}

// ServerFrame is the envelope for every outbound connection event.
type ServerFrame struct {
	Type     string          `json:"type"`
	Message  *MessagePayload `json:"message,omitempty"`
	ChatID   string          `json:"chat_id,omitempty"`
	UserID   string          `json:"user_id,omitempty"`
	IsTyping bool            `json:"is_typing,omitempty"`
	UserIDs  []string        `json:"user_ids,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

func toMessagePayload(m domain.Message) *MessagePayload {
	return &MessagePayload{
		ID:         m.ID.String(),
		ChatID:     m.ChatID,
		SenderID:   m.SenderID,
		Content:    m.Content,
		Attachment: m.Attachment,
		Language:   m.Language,
		Timestamp:  m.Timestamp,
		ReadBy:     m.ReadBy,
	}
}

// toServerFrame translates a core event into its wire envelope.
func toServerFrame(e event.Event) ServerFrame {
	switch evt := e.(type) {
	case event.MessageBroadcast:
		return ServerFrame{Type: string(event.KindMessage), Message: toMessagePayload(evt.Message)}
	case event.MessagesRead:
		return ServerFrame{Type: string(event.KindMessagesRead), ChatID: evt.ChatID, UserID: evt.UserID}
	case event.UserTyping:
		return ServerFrame{Type: string(event.KindUserTyping), ChatID: evt.ChatID, UserID: evt.UserID, IsTyping: evt.IsTyping}
	case event.Roster:
		return ServerFrame{Type: string(event.KindOnlineUsers), UserIDs: evt.Online}
	case event.Failure:
		return ServerFrame{Type: string(event.KindError), Reason: evt.Reason}
	default:
		return ServerFrame{Type: string(event.KindError), Reason: "unknown event"}
	}
}
