package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-relay/observability"
)

// Heartbeat periodically logs process health (CPU, RSS) together with the
// pipeline counters. Purely observational; it never touches core state.
type Heartbeat struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	interval time.Duration
}

const defaultHeartbeatInterval = 30 * time.Second

func NewHeartbeat(log *slog.Logger, monitor *observability.Monitor, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	return &Heartbeat{log: log, monitor: monitor, interval: interval}
}

func (w *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			stats := w.monitor.Snapshot()
			w.log.Info("Heartbeat",
				"cpu_percent", cpu,
				"ram_bytes", rss,
				"connections", stats.ActiveConnections,
				"messages_ingested", stats.MessagesIngested,
				"messages_rejected", stats.MessagesRejected,
				"read_receipts", stats.ReadReceipts,
				"typing_events", stats.TypingEvents)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
