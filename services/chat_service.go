package services

import (
	"context"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime"
)

type IChatService interface {
	PostMessage(cmd domain.PostMessageCommand)
	MarkRead(cmd domain.MarkReadCommand)
	Typing(cmd domain.TypingCommand)
	Connect(conn domain.ConnID, sink contract.EventSink)
	Authenticate(ctx context.Context, userID string, conn domain.ConnID)
	JoinChat(conn domain.ConnID, sink contract.EventSink, chatID string)
	Disconnect(ctx context.Context, conn domain.ConnID)
}

// ChatService is the gateway's façade over the orchestrator. Message
// commands are dispatched asynchronously; the sender receives its own
// message through its sink like any other participant, which keeps a
// single source of truth for ordering and server-assigned fields.
type ChatService struct {
	orchestrator *runtime.Orchestrator
}

func NewChatService(o *runtime.Orchestrator) *ChatService {
	return &ChatService{orchestrator: o}
}

func (s *ChatService) PostMessage(cmd domain.PostMessageCommand) {
	s.orchestrator.Dispatch(cmd)
}

func (s *ChatService) MarkRead(cmd domain.MarkReadCommand) {
	s.orchestrator.Dispatch(cmd)
}

func (s *ChatService) Typing(cmd domain.TypingCommand) {
	s.orchestrator.Dispatch(cmd)
}

func (s *ChatService) Connect(conn domain.ConnID, sink contract.EventSink) {
	s.orchestrator.TrackConnection(conn, sink)
}

func (s *ChatService) Authenticate(ctx context.Context, userID string, conn domain.ConnID) {
	s.orchestrator.Authenticate(ctx, userID, conn)
}

func (s *ChatService) JoinChat(conn domain.ConnID, sink contract.EventSink, chatID string) {
	s.orchestrator.JoinChat(conn, sink, chatID)
}

func (s *ChatService) Disconnect(ctx context.Context, conn domain.ConnID) {
	s.orchestrator.Disconnect(ctx, conn)
}
