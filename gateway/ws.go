package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/services"
	"chat-relay/sink"
)

// WSHandler owns the duplex side of the gateway: it upgrades connections,
// authenticates them, and dispatches inbound events into the core.
type WSHandler struct {
	log        *slog.Logger
	chat       services.IChatService
	auth       services.IAuthService
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewWSHandler(log *slog.Logger, chat services.IChatService, auth services.IAuthService,
	bufferSize int, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &WSHandler{
		log:        log,
		chat:       chat,
		auth:       auth,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// HandleWS handles GET /ws. It blocks until the client disconnects, then
// promptly removes the connection from presence and every room; events
// still queued on its sink are dropped with the dying write pump.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade failed", "error", err)
		return
	}

	connID := domain.ConnID(uuid.NewString())
	snk := sink.NewConnSink(connID, h.log, h.bufferSize)
	h.chat.Connect(connID, snk)

	ctx, cancel := context.WithCancel(context.Background())
	go h.writePump(ctx, conn, snk)

	h.readPump(ctx, conn, connID, snk)

	cancel()
	// r.Context() is gone once the handler unwinds; cleanup uses its own.
	h.chat.Disconnect(context.Background(), connID)
	_ = conn.Close()
}

// readPump is the single reader of the connection. The sender identity for
// every command comes from the authenticated session, never from the frame.
func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, connID domain.ConnID, snk *sink.ConnSink) {
	userID := ""
	for {
		var frame ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("Connection read failed", "conn", string(connID), "error", err)
			}
			return
		}

		switch frame.Type {
		case frameAuthenticate:
			id, err := h.auth.Identify(frame.Token)
			if err != nil {
				_ = snk.Consume(ctx, event.Failure{Reason: "invalid token"})
				continue
			}
			userID = id
			h.chat.Authenticate(ctx, userID, connID)

		case frameJoinChat:
			if !h.requireAuth(ctx, userID, snk) {
				continue
			}
			h.chat.JoinChat(connID, snk, frame.ChatID)

		case frameSendMessage:
			if !h.requireAuth(ctx, userID, snk) {
				continue
			}
			h.chat.PostMessage(domain.PostMessageCommand{
				ChatID:     frame.ChatID,
				SenderID:   userID,
				Content:    frame.Content,
				Attachment: frame.Attachment,
				Origin:     connID,
			})

		case frameTyping:
			if !h.requireAuth(ctx, userID, snk) {
				continue
			}
			h.chat.Typing(domain.TypingCommand{
				ChatID:   frame.ChatID,
				UserID:   userID,
				IsTyping: frame.IsTyping,
				Origin:   connID,
			})

		case frameMarkRead:
			if !h.requireAuth(ctx, userID, snk) {
				continue
			}
			h.chat.MarkRead(domain.MarkReadCommand{
				ChatID: frame.ChatID,
				UserID: userID,
				Origin: connID,
			})

		default:
			_ = snk.Consume(ctx, event.Failure{Reason: "unknown frame type"})
		}
	}
}

func (h *WSHandler) requireAuth(ctx context.Context, userID string, snk *sink.ConnSink) bool {
	if userID == "" {
		_ = snk.Consume(ctx, event.Failure{Reason: "authenticate first"})
		return false
	}
	return true
}

// writePump drains the connection's sink. It is the single writer on the
// socket; a write error ends the pump and the queued events die with it.
func (h *WSHandler) writePump(ctx context.Context, conn *websocket.Conn, snk *sink.ConnSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-snk.Events:
			if err := conn.WriteJSON(toServerFrame(evt)); err != nil {
				h.log.Debug("Connection write failed, stopping pump", "conn", string(snk.ID()), "error", err)
				return
			}
		}
	}
}
