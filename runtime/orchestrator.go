// Package runtime wires presence, room routing, and the message pipeline
// together and supervises their workers. It orchestrates the system without
// containing domain rules of its own.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime/workers"
)

type Orchestrator struct {
	log               *slog.Logger
	supervisor        *workers.Supervisor
	registry          *Registry
	presence          contract.Roster
	monitor           *observability.Monitor
	chats             repositories.IChatRepository
	messages          repositories.IMessageRepository
	commands          chan domain.Command
	permanentSinks    []contract.EventSink
	censoredChar      rune
	heartbeatInterval time.Duration
}

func NewOrchestrator(
	log *slog.Logger,
	supervisor *workers.Supervisor,
	registry *Registry,
	presence contract.Roster,
	monitor *observability.Monitor,
	chats repositories.IChatRepository,
	messages repositories.IMessageRepository,
	bufferSize int,
	censoredChar rune,
	heartbeatInterval time.Duration,
	permanentSinks ...contract.EventSink,
) *Orchestrator {
	return &Orchestrator{
		log:               log,
		supervisor:        supervisor,
		registry:          registry,
		presence:          presence,
		monitor:           monitor,
		chats:             chats,
		messages:          messages,
		commands:          make(chan domain.Command, bufferSize),
		permanentSinks:    permanentSinks,
		censoredChar:      censoredChar,
		heartbeatInterval: heartbeatInterval,
	}
}

// Dispatch hands a command to the pipeline without blocking the caller's
// read loop. A full channel drops the command; the origin connection gets
// a failure event rather than the whole gateway stalling.
func (o *Orchestrator) Dispatch(cmd domain.Command) {
	select {
	case o.commands <- cmd:
	default:
		o.log.Warn(fmt.Sprintf("Command channel full for chat %s, dropping command", cmd.Chat()))
		o.registry.SendTo(context.Background(), cmd.Source(), event.Failure{Reason: "server busy, try again"})
	}
}

// TrackConnection makes an accepted connection reachable for broadcasts
// before it authenticates or joins anything.
func (o *Orchestrator) TrackConnection(conn domain.ConnID, s contract.EventSink) {
	o.registry.Track(conn, s)
	o.monitor.ConnOpened()
}

// Authenticate binds the user to the connection (last-authenticated-wins)
// and pushes the updated roster snapshot to every connection.
func (o *Orchestrator) Authenticate(ctx context.Context, userID string, conn domain.ConnID) {
	roster := o.presence.Register(userID, conn)
	o.registry.BroadcastAll(ctx, event.Roster{Online: roster})
}

// JoinChat subscribes the connection to the chat's event stream. No
// membership check happens here; the router is a pure fan-out mechanism.
func (o *Orchestrator) JoinChat(conn domain.ConnID, s contract.EventSink, chatID string) {
	o.registry.Subscribe(conn, s, chatID)
}

// Disconnect promptly removes the connection from presence and from every
// room. Events still queued to it are dropped by its dying write pump.
func (o *Orchestrator) Disconnect(ctx context.Context, conn domain.ConnID) {
	o.monitor.ConnClosed()
	o.registry.DropConnection(conn)
	if roster, changed := o.presence.Unregister(conn); changed {
		o.registry.BroadcastAll(ctx, event.Roster{Online: roster})
	}
}

// Start prepares the moderation automaton and the workers, then runs the
// supervisor until ctx is canceled.
func (o *Orchestrator) Start(ctx context.Context) error {
	moderator, err := o.prepareModeration()
	if err != nil {
		return err
	}

	pipeline := workers.NewPipeline(
		o.log, o.commands, o.chats, o.messages,
		o.registry, moderator, o.monitor,
		o.permanentSinks...,
	)
	o.supervisor.Add(pipeline)
	o.supervisor.Add(workers.NewHeartbeat(o.log, o.monitor, o.heartbeatInterval))

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

func (o *Orchestrator) prepareModeration() (*moderation.Moderator, error) {
	data, err := moderation.LoadCensoredWords()
	if err != nil {
		return nil, err
	}
	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, o.censoredChar)
	if err != nil {
		return nil, err
	}
	return &moderator, nil
}

// Stop signals every supervised worker to wind down.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
