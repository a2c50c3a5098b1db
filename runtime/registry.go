package runtime

import (
	"context"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
)

type connSet map[domain.ConnID]struct{}

// Registry is the room router: it tracks which connections are subscribed
// to which chat's event stream and fans events out to them. It performs no
// membership authorization; it is a pure delivery mechanism.
type Registry struct {
	mu    sync.RWMutex
	sinks map[domain.ConnID]contract.EventSink
	rooms map[string]connSet
	// joined is the reverse index so a disconnect can leave every room
	// without scanning them all.
	joined map[domain.ConnID]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:  make(map[domain.ConnID]contract.EventSink),
		rooms:  make(map[string]connSet),
		joined: make(map[domain.ConnID]map[string]struct{}),
	}
}

// Track registers the connection's sink so broadcasts can reach it. A
// connection is tracked from the moment the gateway accepts it, before it
// joins any chat, so roster snapshots reach everyone.
func (r *Registry) Track(conn domain.ConnID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[conn] = sink
}

func (r *Registry) Subscribe(conn domain.ConnID, sink contract.EventSink, chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks[conn] = sink

	if _, ok := r.rooms[chatID]; !ok {
		r.rooms[chatID] = make(connSet)
	}
	r.rooms[chatID][conn] = struct{}{}

	if _, ok := r.joined[conn]; !ok {
		r.joined[conn] = make(map[string]struct{})
	}
	r.joined[conn][chatID] = struct{}{}
}

func (r *Registry) Unsubscribe(conn domain.ConnID, chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(conn, chatID)
}

// DropConnection removes the connection from every room and forgets its
// sink. Events already queued on the sink are simply dropped by the dying
// write pump.
func (r *Registry) DropConnection(conn domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for chatID := range r.joined[conn] {
		r.leaveLocked(conn, chatID)
	}
	delete(r.joined, conn)
	delete(r.sinks, conn)
}

func (r *Registry) leaveLocked(conn domain.ConnID, chatID string) {
	if members, ok := r.rooms[chatID]; ok {
		delete(members, conn)
		// No empty sets left behind, to keep the map from growing forever.
		if len(members) == 0 {
			delete(r.rooms, chatID)
		}
	}
	if chats, ok := r.joined[conn]; ok {
		delete(chats, chatID)
	}
}

// Broadcast delivers the event to every connection subscribed to the chat.
// Delivery is best-effort through non-blocking sinks: a slow or dead
// connection cannot delay the others.
func (r *Registry) Broadcast(ctx context.Context, chatID string, e event.Event) {
	for _, s := range r.roomSinks(chatID, "") {
		_ = s.Consume(ctx, e)
	}
}

// BroadcastExcept is Broadcast minus the originating connection. Used for
// typing indicators only.
func (r *Registry) BroadcastExcept(ctx context.Context, chatID string, origin domain.ConnID, e event.Event) {
	for _, s := range r.roomSinks(chatID, origin) {
		_ = s.Consume(ctx, e)
	}
}

func (r *Registry) BroadcastAll(ctx context.Context, e event.Event) {
	r.mu.RLock()
	all := make([]contract.EventSink, 0, len(r.sinks))
	for _, s := range r.sinks {
		all = append(all, s)
	}
	r.mu.RUnlock()

	for _, s := range all {
		_ = s.Consume(ctx, e)
	}
}

func (r *Registry) SendTo(ctx context.Context, conn domain.ConnID, e event.Event) {
	r.mu.RLock()
	s, ok := r.sinks[conn]
	r.mu.RUnlock()
	if ok {
		_ = s.Consume(ctx, e)
	}
}

// roomSinks snapshots the subscribed sinks under the read lock so delivery
// happens without holding it.
func (r *Registry) roomSinks(chatID string, exclude domain.ConnID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[chatID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(members))
	for conn := range members {
		if exclude != "" && conn == exclude {
			continue
		}
		if s, exists := r.sinks[conn]; exists {
			sinks = append(sinks, s)
		}
	}
	return sinks
}
