package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	apperrors "chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
)

// Pipeline is the single worker that consumes connection commands. One
// consumer means every store mutation issued from connection events is
// serialized, which is what gives each chat its insertion-order guarantee.
type Pipeline struct {
	log       *slog.Logger
	commands  chan domain.Command
	chats     repositories.IChatRepository
	messages  repositories.IMessageRepository
	router    contract.Router
	moderator *moderation.Moderator
	monitor   *observability.Monitor
	sinks     []contract.EventSink
	// lastStamp holds the per-chat timestamp floor. Only this worker
	// touches it.
	lastStamp map[string]time.Time
}

func NewPipeline(
	log *slog.Logger,
	commands chan domain.Command,
	chats repositories.IChatRepository,
	messages repositories.IMessageRepository,
	router contract.Router,
	moderator *moderation.Moderator,
	monitor *observability.Monitor,
	sinks ...contract.EventSink,
) *Pipeline {
	return &Pipeline{
		log:       log,
		commands:  commands,
		chats:     chats,
		messages:  messages,
		router:    router,
		moderator: moderator,
		monitor:   monitor,
		sinks:     sinks,
		lastStamp: make(map[string]time.Time),
	}
}

func (w *Pipeline) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping pipeline worker")
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				return nil
			}
			switch c := cmd.(type) {
			case domain.PostMessageCommand:
				w.handlePost(ctx, c)
			case domain.MarkReadCommand:
				w.handleMarkRead(ctx, c)
			case domain.TypingCommand:
				w.handleTyping(ctx, c)
			default:
				w.log.Warn(fmt.Sprintf("Unknown command type %T", cmd))
			}
		}
	}
}

// handlePost accepts a message: validate, censor, assign server fields,
// persist, then broadcast. A persistence failure is reported to the origin
// connection only; unpersisted data is never broadcast.
func (w *Pipeline) handlePost(ctx context.Context, c domain.PostMessageCommand) {
	if c.SenderID == "" {
		w.reject(ctx, c.Origin, "sender is required")
		return
	}
	if _, err := w.chats.GetChat(c.ChatID); err != nil {
		if errors.Is(err, apperrors.ErrChatNotFound) {
			w.reject(ctx, c.Origin, apperrors.ErrChatNotFound.Error())
		} else {
			w.log.Error("Chat lookup failed", "chat_id", c.ChatID, "error", err)
			w.reject(ctx, c.Origin, apperrors.ErrPersistence.Error())
		}
		return
	}

	content, foundWords := w.moderator.Censor(c.Content)
	if len(foundWords) > 0 {
		w.log.Info("Censored message content", "chat_id", c.ChatID, "author", c.SenderID, "words", len(foundWords))
	}

	msg := domain.Message{
		ID:         uuid.New(),
		ChatID:     c.ChatID,
		SenderID:   c.SenderID,
		Content:    content,
		Attachment: c.Attachment,
		Language:   whatlanggo.Detect(content).Lang.Iso6391(),
		Timestamp:  w.stamp(c.ChatID),
		ReadBy:     []string{c.SenderID},
	}

	if err := w.messages.AppendMessage(msg); err != nil {
		w.log.Error("Message persistence failed", "chat_id", c.ChatID, "error", err)
		w.monitor.MessageRejected()
		w.reject(ctx, c.Origin, apperrors.ErrPersistence.Error())
		return
	}

	w.monitor.MessageIngested()
	broadcast := event.MessageBroadcast{Message: msg}
	w.router.Broadcast(ctx, c.ChatID, broadcast)
	for _, s := range w.sinks {
		_ = s.Consume(ctx, broadcast)
	}
}

// handleMarkRead persists the batch first; the broadcast goes out only
// after every ReadBy update for this call has committed.
func (w *Pipeline) handleMarkRead(ctx context.Context, c domain.MarkReadCommand) {
	changed, err := w.messages.MarkRead(c.ChatID, c.UserID)
	if err != nil {
		w.log.Error("Read receipt persistence failed", "chat_id", c.ChatID, "error", err)
		w.reject(ctx, c.Origin, apperrors.ErrPersistence.Error())
		return
	}
	w.log.Debug("Marked chat read", "chat_id", c.ChatID, "user_id", c.UserID, "changed", changed)
	w.monitor.ReadReceipt()
	w.router.Broadcast(ctx, c.ChatID, event.MessagesRead{ChatID: c.ChatID, UserID: c.UserID})
}

// handleTyping is pure transient fan-out, excluding the originator.
func (w *Pipeline) handleTyping(ctx context.Context, c domain.TypingCommand) {
	w.monitor.Typing()
	w.router.BroadcastExcept(ctx, c.ChatID, c.Origin, event.UserTyping{
		ChatID:   c.ChatID,
		UserID:   c.UserID,
		IsTyping: c.IsTyping,
	})
}

func (w *Pipeline) reject(ctx context.Context, origin domain.ConnID, reason string) {
	w.monitor.MessageRejected()
	w.router.SendTo(ctx, origin, event.Failure{Reason: reason})
}

// stamp returns a per-chat strictly increasing server timestamp. The floor is
// seeded from the stored history the first time a chat is seen, so the
// guarantee survives restarts even if the clock stepped backwards.
func (w *Pipeline) stamp(chatID string) time.Time {
	now := time.Now().UTC()
	last, ok := w.lastStamp[chatID]
	if !ok {
		if msg, found, err := w.messages.LastMessage(chatID); err == nil && found {
			last = msg.Timestamp
		}
	}
	// Strictly after the floor so the key order matches acceptance order
	// even when the clock steps back.
	if !now.After(last) && !last.IsZero() {
		now = last.Add(time.Nanosecond)
	}
	w.lastStamp[chatID] = now
	return now
}
