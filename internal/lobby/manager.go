// internal/lobby/manager.go

// Package lobby implements the invite manager: the catalogue of open game
// invitations, the set of connections watching it, and the rules that govern
// creating, cancelling and accepting invites.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/varchess/lobby/internal/i18n"
	"github.com/varchess/lobby/internal/identity"
	"github.com/varchess/lobby/internal/invite"
	"github.com/varchess/lobby/internal/metrics"
	"github.com/varchess/lobby/internal/rating"
	"github.com/varchess/lobby/internal/restart"
	"github.com/varchess/lobby/internal/variants"
)

// GameService is the lobby's view of the game subsystem. CreateGame consumes
// both players: by the time the manager calls it, both subscriptions have
// already been pulled from the registry, and CreateGame must register them as
// game participants and hand each a game subscription before returning.
type GameService interface {
	IsInActiveGame(ident identity.AuthIdentity) bool
	ActiveCount() int
	CreateGame(inv *invite.Invite, owner, accepter *Subscription, replyTo uint32)
}

// DefaultGraceWindow is how long a dropped connection's invites survive
// before the grace timer removes them.
const DefaultGraceWindow = 5 * time.Second

// Deps carries the manager's collaborators.
type Deps struct {
	Games       GameService
	Ratings     rating.Provider
	Restart     restart.Coordinator
	Logger      *logrus.Logger
	Metrics     *metrics.Metrics
	GraceWindow time.Duration // zero means DefaultGraceWindow
}

// Manager owns the invite store, the subscriber registry and the grace timer
// pool. Every mutation of the three runs under one mutex, so a broadcast
// always reflects a fully applied command and two commands can never
// interleave their snapshots.
type Manager struct {
	mu    sync.Mutex
	store *Store
	subs  *Registry
	grace map[string]*time.Timer

	graceWindow time.Duration
	games       GameService
	ratings     rating.Provider
	restart     restart.Coordinator
	logger      *logrus.Logger
	metrics     *metrics.Metrics
}

// NewManager wires a manager from its dependencies.
func NewManager(deps Deps) *Manager {
	gw := deps.GraceWindow
	if gw == 0 {
		gw = DefaultGraceWindow
	}
	return &Manager{
		store:       NewStore(),
		subs:        NewRegistry(),
		grace:       make(map[string]*time.Timer),
		graceWindow: gw,
		games:       deps.Games,
		ratings:     deps.Ratings,
		restart:     deps.Restart,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
}

// Subscribe adds a connection to the lobby, cancels any pending grace timer
// for its identity, and sends it the full catalogue. A double-subscribe by
// the same connection is refused with unchanged state.
func (m *Manager) Subscribe(sub *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.subs.Add(sub); err != nil {
		return err
	}
	m.cancelGraceLocked(sub.Identity.Key())
	m.metrics.Subscribers.Set(float64(m.subs.Len()))

	m.sendCatalogueLocked(sub, nil)
	m.logger.WithFields(logrus.Fields{
		"conn":  sub.ConnID,
		"owner": sub.Identity.Key(),
	}).Info("lobby subscribe")
	return nil
}

// Unsubscribe removes a connection from the lobby. byChoice means the client
// deliberately left: its invites are deleted immediately. Otherwise the
// connection was lost and a grace timer preserves the invites for a short
// reconnect window.
func (m *Manager) Unsubscribe(connID uuid.UUID, byChoice bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := m.subs.Remove(connID)
	if sub == nil {
		return
	}
	m.metrics.Subscribers.Set(float64(m.subs.Len()))
	m.logger.WithFields(logrus.Fields{
		"conn":     connID,
		"owner":    sub.Identity.Key(),
		"byChoice": byChoice,
	}).Info("lobby unsubscribe")

	if byChoice {
		_, publicDeleted := m.store.RemoveByOwner(sub.Identity)
		m.metrics.OpenInvites.Set(float64(m.store.Len()))
		if publicDeleted {
			m.broadcastLocked(nil, 0)
		}
		return
	}
	if m.store.OwnedBy(sub.Identity) {
		m.scheduleGraceLocked(sub.Identity)
	}
}

// CreateInvite handles the createinvite command for sub. Policy failures are
// answered on the wire and returned for the caller's logging; none of them
// mutates state.
func (m *Manager) CreateInvite(ctx context.Context, sub *Subscription, p invite.CreateParams, replyTo uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs.Get(sub.ConnID); !ok {
		sub.WriteError("Not subscribed.", &replyTo)
		return m.rejected("createinvite", ErrNotSubscribed)
	}
	if m.games.IsInActiveGame(sub.Identity) {
		m.notifyLocked(sub, i18n.KeyAlreadyInGame, nil, &replyTo)
		return m.rejected("createinvite", ErrAlreadyInGame)
	}
	if m.store.OwnedBy(sub.Identity) {
		sub.WriteError("You already have an invite.", &replyTo)
		return m.rejected("createinvite", ErrOwnerHasInvite)
	}
	if !sub.Identity.HasRole(identity.RoleOwner) {
		if minutes, hasETA, checkFailed, err := m.checkRestartGateLocked(ctx); err != nil {
			switch {
			case checkFailed:
				m.notifyLocked(sub, i18n.KeyUnderMaintenance, nil, &replyTo)
			case hasETA:
				m.notifyLocked(sub, i18n.KeyServerRestarting, &minutes, &replyTo)
			default:
				// A restart with no readable ETA still reads as restarting;
				// the maintenance message is reserved for a failed check.
				m.notifyLocked(sub, i18n.KeyServerRestarting, nil, &replyTo)
			}
			return m.rejected("createinvite", err)
		}
	}
	if err := invite.Validate(p, sub.Identity); err != nil {
		if errors.Is(err, invite.ErrNeedsVerification) {
			m.notifyLocked(sub, i18n.KeyVerificationNeeded, nil, &replyTo)
		} else {
			m.logger.WithError(err).WithField("owner", sub.Identity.Key()).Warn("rejected invite params")
			sub.WriteError("Invalid invite parameters.", &replyTo)
		}
		return m.rejected("createinvite", err)
	}

	inv := &invite.Invite{
		Owner:     sub.Identity,
		Name:      m.usernameContainer(ctx, sub.Identity, p.Variant),
		Tag:       p.Tag,
		Variant:   p.Variant,
		Clock:     p.Clock,
		Color:     p.Color,
		Rated:     p.Rated,
		Publicity: p.Publicity,
	}
	id, err := invite.GenerateID(m.store.IDInUse)
	if err != nil {
		m.logger.WithError(err).Error("invite id generation failed")
		sub.WriteError("Could not create invite. Please try again.", &replyTo)
		return m.rejected("createinvite", err)
	}
	inv.ID = id

	if err := m.store.Add(inv); err != nil {
		// Both failure modes were ruled out above under the same lock.
		panic(fmt.Sprintf("lobby: store.Add after checks: %v", err))
	}
	m.metrics.OpenInvites.Set(float64(m.store.Len()))
	m.metrics.Commands.WithLabelValues("createinvite", "ok").Inc()
	m.logger.WithFields(logrus.Fields{
		"invite":    inv.ID,
		"owner":     sub.Identity.Key(),
		"variant":   inv.Variant,
		"rated":     inv.Rated,
		"publicity": inv.Publicity,
	}).Info("invite created")

	if inv.IsPublic() {
		m.broadcastLocked(sub, replyTo)
	} else {
		m.sendCatalogueLocked(sub, &replyTo)
	}
	return nil
}

// CancelInvite handles the cancelinvite command. A vanished id is answered
// with an empty ack so the client can unlock its create button.
func (m *Manager) CancelInvite(sub *Subscription, id string, replyTo uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs.Get(sub.ConnID); !ok {
		sub.WriteError("Not subscribed.", &replyTo)
		return m.rejected("cancelinvite", ErrNotSubscribed)
	}
	inv, _, found := m.store.FindByID(id)
	if !found {
		sub.WriteAck(replyTo)
		m.metrics.Commands.WithLabelValues("cancelinvite", "ok").Inc()
		return nil
	}
	if !inv.Owner.Equal(sub.Identity) {
		m.logger.WithFields(logrus.Fields{
			"invite": id,
			"owner":  inv.Owner.Key(),
			"from":   sub.Identity.Key(),
		}).Warn("cancel refused: not the invite owner")
		sub.WriteError("Forbidden.", &replyTo)
		return m.rejected("cancelinvite", ErrNotYourInvite)
	}

	removed := m.store.RemoveByID(id)
	if removed == nil {
		panic(fmt.Sprintf("lobby: invite %s found but not removable", id))
	}
	m.metrics.OpenInvites.Set(float64(m.store.Len()))
	m.metrics.Commands.WithLabelValues("cancelinvite", "ok").Inc()
	m.logger.WithFields(logrus.Fields{"invite": id, "owner": sub.Identity.Key()}).Info("invite cancelled")

	if removed.IsPublic() {
		m.broadcastLocked(sub, replyTo)
	} else {
		m.sendCatalogueLocked(sub, &replyTo)
	}
	return nil
}

// AcceptInvite handles the acceptinvite command. On success the invite and
// the accepter's own invites are removed, both players leave the lobby, the
// game factory takes over, and everyone left behind gets a fresh snapshot.
func (m *Manager) AcceptInvite(ctx context.Context, sub *Subscription, id string, isPrivate bool, replyTo uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs.Get(sub.ConnID); !ok {
		sub.WriteError("Not subscribed.", &replyTo)
		return m.rejected("acceptinvite", ErrNotSubscribed)
	}
	if m.games.IsInActiveGame(sub.Identity) {
		m.notifyLocked(sub, i18n.KeyAlreadyInGame, nil, &replyTo)
		return m.rejected("acceptinvite", ErrAlreadyInGame)
	}
	inv, _, found := m.store.FindByID(id)
	if !found {
		key := i18n.KeyGameAborted
		if isPrivate {
			key = i18n.KeyInvalidCode
		}
		m.notifyLocked(sub, key, nil, &replyTo)
		return m.rejected("acceptinvite", ErrInviteNotFound)
	}
	if inv.Owner.Equal(sub.Identity) {
		sub.WriteError("You cannot accept your own invite.", &replyTo)
		return m.rejected("acceptinvite", ErrAcceptOwnInvite)
	}
	if inv.Rated == invite.RatedRated && !(sub.Identity.SignedIn && sub.Identity.Verified) {
		m.notifyLocked(sub, i18n.KeyVerificationNeeded, nil, &replyTo)
		return m.rejected("acceptinvite", invite.ErrNeedsVerification)
	}

	if m.store.RemoveByID(id) == nil {
		panic(fmt.Sprintf("lobby: invite %s found but not removable", id))
	}
	m.store.RemoveByOwner(sub.Identity)

	ownerSub, _ := m.subs.FindFor(inv.Owner)
	if ownerSub != nil {
		m.subs.Remove(ownerSub.ConnID)
		m.cancelGraceLocked(inv.Owner.Key())
	}
	m.subs.Remove(sub.ConnID)
	m.cancelGraceLocked(sub.Identity.Key())
	m.metrics.Subscribers.Set(float64(m.subs.Len()))
	m.metrics.OpenInvites.Set(float64(m.store.Len()))

	// The factory runs to completion here so the game count in the broadcast
	// below is already up to date.
	m.games.CreateGame(inv, ownerSub, sub, replyTo)
	m.metrics.GamesCreated.Inc()
	m.metrics.Commands.WithLabelValues("acceptinvite", "ok").Inc()
	m.logger.WithFields(logrus.Fields{
		"invite":   inv.ID,
		"owner":    inv.Owner.Key(),
		"accepter": sub.Identity.Key(),
	}).Info("invite accepted")

	m.broadcastLocked(nil, 0)
	return nil
}

// InviteCount returns the number of live invites.
func (m *Manager) InviteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Len()
}

// SubscriberCount returns the number of subscribed connections.
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs.Len()
}

// --- internals; every *Locked method assumes m.mu is held ---

// usernameContainer derives the displayable owner descriptor at creation
// time. A failed rating lookup degrades to no rating.
func (m *Manager) usernameContainer(ctx context.Context, ident identity.AuthIdentity, variant string) invite.UsernameContainer {
	if !ident.SignedIn {
		return invite.UsernameContainer{Type: "guest", Username: ident.DisplayName()}
	}
	uc := invite.UsernameContainer{Type: "player", Username: ident.Username}
	lb, ok := variants.Leaderboard(variant)
	if !ok {
		lb = variants.LeaderboardInfinity
	}
	elo, err := m.ratings.Rating(ctx, ident.UserID, lb)
	switch {
	case err == nil:
		uc.Rating = &elo
	case errors.Is(err, rating.ErrNoRating):
		// unrated, nothing to show
	default:
		m.logger.WithError(err).WithFields(logrus.Fields{
			"user":        ident.UserID,
			"leaderboard": lb,
		}).Warn("rating lookup failed; proceeding without rating")
	}
	return uc
}

// catalogueLocked assembles the per-subscriber view: all public invites plus
// the subscriber's own private ones, and the current game count.
func (m *Manager) catalogueLocked(sub *Subscription, gameCount int) map[string]interface{} {
	list := m.store.PublicSnapshot()
	list = append(list, m.store.PrivateOwnedBy(sub.Identity)...)
	return map[string]interface{}{
		"action": "inviteslist",
		"value": map[string]interface{}{
			"invitesList":      list,
			"currentGameCount": gameCount,
		},
	}
}

// sendCatalogueLocked sends the catalogue to one subscriber.
func (m *Manager) sendCatalogueLocked(sub *Subscription, replyTo *uint32) {
	msg := m.catalogueLocked(sub, m.games.ActiveCount())
	if replyTo != nil {
		msg["replyTo"] = *replyTo
	}
	if !sub.Write(msg) {
		m.metrics.DroppedMessages.Inc()
	}
}

// broadcastLocked sends each subscriber its post-mutation snapshot. Only the
// originator's copy carries the replyTo correlation.
func (m *Manager) broadcastLocked(origin *Subscription, replyTo uint32) {
	count := m.games.ActiveCount()
	for _, sub := range m.subs.All() {
		msg := m.catalogueLocked(sub, count)
		if origin != nil && sub == origin {
			msg["replyTo"] = replyTo
		}
		if !sub.Write(msg) {
			m.metrics.DroppedMessages.Inc()
		}
	}
	m.metrics.Broadcasts.Inc()
}

// notifyLocked sends a soft informational message rendered in the
// subscriber's locale.
func (m *Manager) notifyLocked(sub *Subscription, key string, customNumber *int, replyTo *uint32) {
	args := map[string]interface{}{}
	if customNumber != nil {
		args["customNumber"] = *customNumber
	}
	if replyTo != nil {
		args["replyTo"] = *replyTo
	}
	msg := map[string]interface{}{
		"action": "notify",
		"value":  i18n.Translate(key, sub.Locale),
	}
	if len(args) > 0 {
		msg["args"] = args
	}
	if !sub.Write(msg) {
		m.metrics.DroppedMessages.Inc()
	}
}

// rejected counts a policy rejection and passes the error through.
func (m *Manager) rejected(action string, err error) error {
	m.metrics.Commands.WithLabelValues(action, "rejected").Inc()
	return err
}

// scheduleGraceLocked arms (or re-arms) the grace timer for ident. A prior
// timer for the same key is cancelled first.
func (m *Manager) scheduleGraceLocked(ident identity.AuthIdentity) {
	key := ident.Key()
	if t, ok := m.grace[key]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(m.graceWindow, func() {
		m.expireGrace(key, ident, timer)
	})
	m.grace[key] = timer
	m.logger.WithField("owner", key).Debug("grace timer armed")
}

// cancelGraceLocked stops and forgets the grace timer for a key, if any.
func (m *Manager) cancelGraceLocked(key string) {
	if t, ok := m.grace[key]; ok {
		t.Stop()
		delete(m.grace, key)
		m.logger.WithField("owner", key).Debug("grace timer cancelled")
	}
}

// expireGrace runs when a grace timer fires. A timer that lost the race
// against re-subscription (or against its own replacement) is stale and does
// nothing.
func (m *Manager) expireGrace(key string, ident identity.AuthIdentity, timer *time.Timer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.grace[key] != timer {
		return // stale timer
	}
	delete(m.grace, key)

	if m.subs.AnyFor(ident) {
		return
	}
	removed, publicDeleted := m.store.RemoveByOwner(ident)
	if len(removed) == 0 {
		return
	}
	m.metrics.GraceExpiries.Inc()
	m.metrics.OpenInvites.Set(float64(m.store.Len()))
	m.logger.WithFields(logrus.Fields{"owner": key, "removed": len(removed)}).Info("grace expired, invites removed")
	if publicDeleted {
		m.broadcastLocked(nil, 0)
	}
}
