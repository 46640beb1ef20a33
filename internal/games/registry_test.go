// internal/games/registry_test.go
package games

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varchess/lobby/internal/identity"
	"github.com/varchess/lobby/internal/invite"
	"github.com/varchess/lobby/internal/lobby"
	"github.com/varchess/lobby/internal/metrics"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRegistry(logger, metrics.New(prometheus.NewRegistry()))
}

func newTestSub(ident identity.AuthIdentity) *lobby.Subscription {
	return &lobby.Subscription{
		ConnID:   uuid.New(),
		Identity: ident,
		Locale:   "en",
		OutChan:  make(chan map[string]interface{}, 8),
	}
}

func testInvite(color invite.Color) *invite.Invite {
	return &invite.Invite{
		ID:        "abc12",
		Owner:     identity.Guest("b1"),
		Name:      invite.UsernameContainer{Type: "guest", Username: "(Guest)"},
		Tag:       "AAAAAAAA",
		Variant:   "Classical",
		Clock:     "600+0",
		Color:     color,
		Rated:     invite.RatedCasual,
		Publicity: invite.PublicityPublic,
	}
}

func TestCreateGameRegistersParticipants(t *testing.T) {
	r := newTestRegistry(t)
	owner := newTestSub(identity.Guest("b1"))
	accepter := newTestSub(identity.Guest("b2"))

	r.CreateGame(testInvite(invite.ColorNeutral), owner, accepter, 42)

	assert.Equal(t, 1, r.ActiveCount())
	assert.True(t, r.IsInActiveGame(owner.Identity))
	assert.True(t, r.IsInActiveGame(accepter.Identity))
	assert.False(t, r.IsInActiveGame(identity.Guest("b3")))

	// Both sides got a joingame message; the accepter's carries replyTo.
	ownerMsg := <-owner.OutChan
	assert.Equal(t, "joingame", ownerMsg["action"])
	assert.NotContains(t, ownerMsg, "replyTo")

	accMsg := <-accepter.OutChan
	assert.Equal(t, "joingame", accMsg["action"])
	assert.Equal(t, uint32(42), accMsg["replyTo"])
}

func TestCreateGameColorAssignment(t *testing.T) {
	r := newTestRegistry(t)

	owner := newTestSub(identity.Guest("b1"))
	accepter := newTestSub(identity.Guest("b2"))
	r.CreateGame(testInvite(invite.ColorWhite), owner, accepter, 1)
	// Drain to inspect the stored game.
	<-owner.OutChan
	<-accepter.OutChan

	r.mu.Lock()
	require.Len(t, r.games, 1)
	for _, g := range r.games {
		assert.True(t, g.White.Equal(owner.Identity), "owner asked for white")
		assert.True(t, g.Black.Equal(accepter.Identity))
	}
	r.mu.Unlock()
}

func TestCreateGameWithAbsentOwner(t *testing.T) {
	r := newTestRegistry(t)
	accepter := newTestSub(identity.Guest("b2"))

	// Owner is mid-reconnect: no subscription, the game starts anyway.
	r.CreateGame(testInvite(invite.ColorBlack), nil, accepter, 7)

	assert.Equal(t, 1, r.ActiveCount())
	assert.True(t, r.IsInActiveGame(identity.Guest("b1")))
	msg := <-accepter.OutChan
	assert.Equal(t, "joingame", msg["action"])
}

func TestEndGameReleasesParticipants(t *testing.T) {
	r := newTestRegistry(t)
	owner := newTestSub(identity.Guest("b1"))
	accepter := newTestSub(identity.Guest("b2"))
	r.CreateGame(testInvite(invite.ColorNeutral), owner, accepter, 1)

	var gameID uuid.UUID
	r.mu.Lock()
	for id := range r.games {
		gameID = id
	}
	r.mu.Unlock()

	r.EndGame(gameID)
	assert.Equal(t, 0, r.ActiveCount())
	assert.False(t, r.IsInActiveGame(owner.Identity))
	assert.False(t, r.IsInActiveGame(accepter.Identity))

	// Ending twice is harmless.
	r.EndGame(gameID)
	assert.Equal(t, 0, r.ActiveCount())
}
