//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

// Worker doesn't protect itself; supervision is the supervisor's job.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives events destined for one connection. Implementations
// must never block the caller; a slow consumer drops instead of stalling
// the fan-out.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// Router manages which connections are subscribed to which chat's event
// stream. It is a pure fan-out mechanism; membership authorization is the
// gateway's concern.
type Router interface {
	// Track makes the connection reachable by broadcasts before it has
	// joined any chat.
	Track(conn domain.ConnID, sink EventSink)
	Subscribe(conn domain.ConnID, sink EventSink, chatID string)
	Unsubscribe(conn domain.ConnID, chatID string)
	DropConnection(conn domain.ConnID)
	Broadcast(ctx context.Context, chatID string, e event.Event)
	BroadcastExcept(ctx context.Context, chatID string, origin domain.ConnID, e event.Event)
	// BroadcastAll reaches every tracked connection, subscribed to a chat
	// or not. Used for roster snapshots; O(connections) per call is a
	// deliberate ceiling of this design.
	BroadcastAll(ctx context.Context, e event.Event)
	SendTo(ctx context.Context, conn domain.ConnID, e event.Event)
}

// Roster tracks which user currently owns which live connection.
type Roster interface {
	Register(userID string, conn domain.ConnID) []string
	Unregister(conn domain.ConnID) ([]string, bool)
	Online() []string
}
