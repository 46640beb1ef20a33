// internal/lobby/policy.go
package lobby

import (
	"context"
	"errors"
	"fmt"
)

// Policy failures. Each maps to a notify or printerror reply in the manager;
// none of them mutates state.
var (
	ErrNotSubscribed    = errors.New("connection is not subscribed to the lobby")
	ErrAlreadyInGame    = errors.New("already in an active game")
	ErrServerRestarting = errors.New("server is restarting")
	ErrNotYourInvite    = errors.New("invite belongs to someone else")
	ErrAcceptOwnInvite  = errors.New("cannot accept your own invite")
	ErrInviteNotFound   = errors.New("invite not found")
)

// checkRestartGateLocked applies the restart gate to a create request. A
// failed restart check denies creation too: when the coordinator is
// unreachable the safe default is to stop admitting new games.
//
// On denial err is ErrServerRestarting (possibly wrapped). minutes is the
// time until restart when hasETA is true; checkFailed distinguishes a
// coordinator failure from a genuine scheduled restart.
func (m *Manager) checkRestartGateLocked(ctx context.Context) (minutes int, hasETA, checkFailed bool, err error) {
	restarting, cerr := m.restart.Restarting(ctx)
	if cerr != nil {
		m.logger.WithError(cerr).Warn("restart check failed; denying invite creation")
		return 0, false, true, fmt.Errorf("%w: %v", ErrServerRestarting, cerr)
	}
	if !restarting {
		return 0, false, false, nil
	}
	minutes, hasETA = m.restart.MinutesUntil(ctx)
	return minutes, hasETA, false, ErrServerRestarting
}
