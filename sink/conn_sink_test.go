package sink

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

func TestConnSink_ConsumeNeverBlocks(t *testing.T) {
	req := require.New(t)
	snk := NewConnSink(domain.ConnID("conn-1"), slog.Default(), 2)
	ctx := context.Background()

	// Fill the buffer with nobody draining it.
	req.NoError(snk.Consume(ctx, event.Failure{Reason: "one"}))
	req.NoError(snk.Consume(ctx, event.Failure{Reason: "two"}))

	// The third consume returns immediately, dropping for this connection only.
	req.NoError(snk.Consume(ctx, event.Failure{Reason: "three"}))

	req.Len(snk.Events, 2)
	first := <-snk.Events
	req.Equal(event.Failure{Reason: "one"}, first)
}
