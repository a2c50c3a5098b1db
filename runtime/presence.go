package runtime

import (
	"sort"
	"sync"

	"chat-relay/domain"
)

// Presence maps each user id to at most one live connection,
// last-authenticated-wins. The table is transient; it starts empty on every
// restart and is never persisted.
type Presence struct {
	mu     sync.Mutex
	byUser map[string]domain.ConnID
	byConn map[domain.ConnID]string
}

func NewPresence() *Presence {
	return &Presence{
		byUser: make(map[string]domain.ConnID),
		byConn: make(map[domain.ConnID]string),
	}
}

// Register binds the user to the connection, silently superseding any
// previous connection for the same user. The old connection is only
// de-registered, never closed. Returns the resulting roster.
func (p *Presence) Register(userID string, conn domain.ConnID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.byUser[userID]; ok && old != conn {
		delete(p.byConn, old)
	}
	if prev, ok := p.byConn[conn]; ok && prev != userID {
		delete(p.byUser, prev)
	}
	p.byUser[userID] = conn
	p.byConn[conn] = userID
	return p.rosterLocked()
}

// Unregister removes the presence entry only if the connection is still the
// one registered for its user. A stale disconnect arriving after a newer
// authentication superseded it finds no entry and changes nothing.
func (p *Presence) Unregister(conn domain.ConnID) ([]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.byConn[conn]
	if !ok {
		return nil, false
	}
	delete(p.byConn, conn)
	delete(p.byUser, userID)
	return p.rosterLocked(), true
}

func (p *Presence) Online() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rosterLocked()
}

func (p *Presence) rosterLocked() []string {
	roster := make([]string, 0, len(p.byUser))
	for userID := range p.byUser {
		roster = append(roster, userID)
	}
	sort.Strings(roster)
	return roster
}
