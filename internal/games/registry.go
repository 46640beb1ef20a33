// internal/games/registry.go

// Package games is the lobby-facing face of the game subsystem: it creates
// games from accepted invites and tracks who is currently playing.
package games

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/varchess/lobby/internal/identity"
	"github.com/varchess/lobby/internal/invite"
	"github.com/varchess/lobby/internal/lobby"
	"github.com/varchess/lobby/internal/metrics"
)

// Game is an active game created from an accepted invite.
type Game struct {
	ID        uuid.UUID
	Variant   string
	Clock     string
	Rated     invite.Rated
	White     identity.AuthIdentity
	Black     identity.AuthIdentity
	CreatedAt time.Time
}

// Registry holds every active game and an index of its participants.
type Registry struct {
	mu           sync.Mutex
	games        map[uuid.UUID]*Game
	participants map[string]uuid.UUID // identity key -> game id
	logger       *logrus.Logger
	metrics      *metrics.Metrics
}

// NewRegistry returns an empty game registry.
func NewRegistry(logger *logrus.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		games:        make(map[uuid.UUID]*Game),
		participants: make(map[string]uuid.UUID),
		logger:       logger,
		metrics:      m,
	}
}

// IsInActiveGame reports whether ident is a participant of any active game.
func (r *Registry) IsInActiveGame(ident identity.AuthIdentity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[ident.Key()]
	return ok
}

// ActiveCount returns the number of games in progress.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}

// CreateGame builds a game from an accepted invite and registers both players
// as participants. The manager has already pulled both subscriptions out of
// the lobby; each side still holding a connection gets a joingame message on
// it, with the accepter's copy carrying the replyTo correlation. The owner's
// subscription may be nil if the owner is mid-reconnect; the game starts
// anyway and the owner finds it on reconnect.
func (r *Registry) CreateGame(inv *invite.Invite, owner, accepter *lobby.Subscription, replyTo uint32) {
	white, black := assignColors(inv, accepter.Identity)

	g := &Game{
		ID:        uuid.New(),
		Variant:   inv.Variant,
		Clock:     inv.Clock,
		Rated:     inv.Rated,
		White:     white,
		Black:     black,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.games[g.ID] = g
	r.participants[inv.Owner.Key()] = g.ID
	r.participants[accepter.Identity.Key()] = g.ID
	count := len(r.games)
	r.mu.Unlock()
	r.metrics.ActiveGames.Set(float64(count))

	r.logger.WithFields(logrus.Fields{
		"game":    g.ID,
		"invite":  inv.ID,
		"variant": g.Variant,
		"white":   g.White.Key(),
		"black":   g.Black.Key(),
	}).Info("game created")

	payload := func() map[string]interface{} {
		return map[string]interface{}{
			"action": "joingame",
			"value": map[string]interface{}{
				"id":      g.ID.String(),
				"variant": g.Variant,
				"clock":   g.Clock,
				"rated":   g.Rated,
				"white":   g.White.DisplayName(),
				"black":   g.Black.DisplayName(),
			},
		}
	}

	if owner != nil {
		owner.Write(payload())
	}
	msg := payload()
	msg["replyTo"] = replyTo
	accepter.Write(msg)
}

// EndGame removes a finished game and releases its participants so they can
// rejoin the lobby.
func (r *Registry) EndGame(id uuid.UUID) {
	r.mu.Lock()
	g, ok := r.games[id]
	if ok {
		delete(r.games, id)
		delete(r.participants, g.White.Key())
		delete(r.participants, g.Black.Key())
	}
	count := len(r.games)
	r.mu.Unlock()
	if !ok {
		return
	}
	r.metrics.ActiveGames.Set(float64(count))
	r.logger.WithField("game", id).Info("game ended")
}

// assignColors resolves the invite's color preference into white/black seats.
// A Neutral invite flips a coin.
func assignColors(inv *invite.Invite, accepter identity.AuthIdentity) (white, black identity.AuthIdentity) {
	switch inv.Color {
	case invite.ColorWhite:
		return inv.Owner, accepter
	case invite.ColorBlack:
		return accepter, inv.Owner
	default:
		if rand.Intn(2) == 0 {
			return inv.Owner, accepter
		}
		return accepter, inv.Owner
	}
}
