package sink

import (
	"context"
	"log/slog"

	"chat-relay/domain/event"
	"chat-relay/search"
)

// SearchSink feeds broadcast messages into the full-text index. It runs
// after persistence and broadcast; an indexing failure is logged and
// otherwise ignored.
type SearchSink struct {
	index *search.Index
	log   *slog.Logger
}

func NewSearchSink(index *search.Index, log *slog.Logger) SearchSink {
	return SearchSink{index: index, log: log}
}

func (s SearchSink) Consume(_ context.Context, e event.Event) error {
	evt, ok := e.(event.MessageBroadcast)
	if !ok {
		return nil
	}
	if err := s.index.IndexMessage(evt.Message); err != nil {
		s.log.Warn("Failed to index message", "message_id", evt.Message.ID.String(), "error", err)
	}
	return nil
}
