// Package observability aggregates runtime counters for the heartbeat
// report. Counters are atomic; sampling never blocks the pipeline.
package observability

import "sync/atomic"

type Monitor struct {
	messagesIngested  atomic.Uint64
	messagesRejected  atomic.Uint64
	readReceipts      atomic.Uint64
	typingEvents      atomic.Uint64
	activeConnections atomic.Int64
}

type Stats struct {
	MessagesIngested  uint64
	MessagesRejected  uint64
	ReadReceipts      uint64
	TypingEvents      uint64
	ActiveConnections int64
}

func NewMonitor() *Monitor { return &Monitor{} }

func (m *Monitor) MessageIngested() { m.messagesIngested.Add(1) }
func (m *Monitor) MessageRejected() { m.messagesRejected.Add(1) }
func (m *Monitor) ReadReceipt()     { m.readReceipts.Add(1) }
func (m *Monitor) Typing()          { m.typingEvents.Add(1) }
func (m *Monitor) ConnOpened()      { m.activeConnections.Add(1) }
func (m *Monitor) ConnClosed()      { m.activeConnections.Add(-1) }

func (m *Monitor) Snapshot() Stats {
	return Stats{
		MessagesIngested:  m.messagesIngested.Load(),
		MessagesRejected:  m.messagesRejected.Load(),
		ReadReceipts:      m.readReceipts.Load(),
		TypingEvents:      m.typingEvents.Load(),
		ActiveConnections: m.activeConnections.Load(),
	}
}
