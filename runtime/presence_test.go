package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func TestPresence_RegisterAndRoster(t *testing.T) {
	req := require.New(t)
	p := NewPresence()

	roster := p.Register("bob", domain.ConnID("conn-b"))
	req.Equal([]string{"bob"}, roster)

	roster = p.Register("alice", domain.ConnID("conn-a"))
	req.Equal([]string{"alice", "bob"}, roster)
	req.Equal([]string{"alice", "bob"}, p.Online())
}

func TestPresence_LastAuthenticatedWins(t *testing.T) {
	req := require.New(t)
	p := NewPresence()

	p.Register("alice", domain.ConnID("conn-old"))
	roster := p.Register("alice", domain.ConnID("conn-new"))

	// A user never appears twice, whatever the number of connections.
	req.Equal([]string{"alice"}, roster)
}

func TestPresence_ReauthenticateReplacesUser(t *testing.T) {
	req := require.New(t)
	p := NewPresence()

	p.Register("alice", domain.ConnID("conn-1"))
	roster := p.Register("bob", domain.ConnID("conn-1"))

	// The connection now belongs to bob; alice has no connection left.
	req.Equal([]string{"bob"}, roster)

	roster, changed := p.Unregister(domain.ConnID("conn-1"))
	req.True(changed)
	req.Empty(roster)
}

func TestPresence_StaleDisconnectIsIgnored(t *testing.T) {
	p := NewPresence()

	p.Register("alice", domain.ConnID("conn-old"))
	p.Register("alice", domain.ConnID("conn-new"))

	t.Run("should ignore the superseded connection going away", func(t *testing.T) {
		req := require.New(t)
		roster, changed := p.Unregister(domain.ConnID("conn-old"))
		req.False(changed)
		req.Nil(roster)
		req.Equal([]string{"alice"}, p.Online())
	})

	t.Run("should remove the user when the live connection goes away", func(t *testing.T) {
		req := require.New(t)
		roster, changed := p.Unregister(domain.ConnID("conn-new"))
		req.True(changed)
		req.Empty(roster)
	})

	t.Run("should ignore a connection that was never registered", func(t *testing.T) {
		req := require.New(t)
		_, changed := p.Unregister(domain.ConnID("conn-ghost"))
		req.False(changed)
	})
}
