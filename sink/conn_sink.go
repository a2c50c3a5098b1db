// Package sink adapts the fan-out side of the core to individual
// connections. Each live connection owns one buffered sink drained by its
// own write pump, so a stalled reader never delays anyone else.
package sink

import (
	"context"
	"log/slog"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type ConnSink struct {
	id     domain.ConnID
	log    *slog.Logger
	Events chan event.Event
}

func NewConnSink(id domain.ConnID, log *slog.Logger, bufferSize int) *ConnSink {
	return &ConnSink{
		id:     id,
		log:    log,
		Events: make(chan event.Event, bufferSize),
	}
}

func (s *ConnSink) ID() domain.ConnID { return s.id }

// Consume is called by the fan-out path. It hands the event to the
// connection's write pump without ever blocking; a full buffer drops the
// event for this connection only.
func (s *ConnSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Warn("Connection buffer full, dropping event", "conn", string(s.id), "kind", string(e.Kind()))
		return nil
	}
}
