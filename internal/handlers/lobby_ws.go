// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/varchess/lobby/internal/auth"
	"github.com/varchess/lobby/internal/identity"
	"github.com/varchess/lobby/internal/invite"
	"github.com/varchess/lobby/internal/lobby"
	"github.com/varchess/lobby/internal/middleware"
)

// clientEnvelope is the wire envelope of every client command on the lobby
// channel. id is a client-chosen correlation token echoed back as replyTo.
type clientEnvelope struct {
	Action string          `json:"action"`
	Value  json.RawMessage `json:"value"`
	ID     uint32          `json:"id"`
}

// acceptPayload is the value of an acceptinvite command.
type acceptPayload struct {
	ID        string `json:"id"`
	IsPrivate bool   `json:"isPrivate"`
}

// LobbyWSHandler upgrades a connection, resolves its identity, subscribes it
// to the invite list and pumps commands into the manager until the socket
// closes.
func LobbyWSHandler(logger *logrus.Logger, mgr *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		// Identity is resolved (and the guest cookie issued) before the
		// upgrade so Set-Cookie rides on the 101 response.
		ident, err := identify(w, r)
		if err != nil {
			logger.Warnf("identity resolution failed for %s: %v", remoteAddr, err)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lobby"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "lobby" {
			c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sub := &lobby.Subscription{
			ConnID:   uuid.New(),
			Identity: ident,
			Locale:   requestLocale(r),
			Cancel:   cancel,
			OutChan:  make(chan map[string]interface{}, 16),
		}

		if err := mgr.Subscribe(sub); err != nil {
			logger.Warnf("subscribe failed for %s: %v", ident.Key(), err)
			c.Close(AlreadySubscribedError, "already subscribed")
			return
		}
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		go writePump(ctx, c, sub, logger)

		byChoice := readPump(ctx, c, mgr, sub, logger)

		mgr.Unsubscribe(sub.ConnID, byChoice)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, nil)
	}
}

// identify yields the connection's AuthIdentity: a Member when a valid auth
// token cookie is present, otherwise a Guest keyed on the browser-id cookie
// (issued here when missing).
func identify(w http.ResponseWriter, r *http.Request) (identity.AuthIdentity, error) {
	if c, err := r.Cookie("auth_token"); err == nil && c.Value != "" {
		return auth.AuthenticateJWT(c.Value)
	}
	browserID, err := auth.EnsureBrowserID(w, r)
	if err != nil {
		return identity.AuthIdentity{}, err
	}
	return identity.Guest(browserID), nil
}

// requestLocale picks the connection locale from the query string, then the
// Accept-Language header.
func requestLocale(r *http.Request) string {
	if loc := r.URL.Query().Get("locale"); loc != "" {
		return loc
	}
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	first := strings.Split(header, ",")[0]
	return strings.TrimSpace(strings.Split(first, ";")[0])
}

// readPump consumes commands until the socket closes. Its return value is
// the byChoice flag for the manager: only a normal closure counts as a
// deliberate exit; every other termination gets the disconnect grace.
func readPump(ctx context.Context, c *websocket.Conn, mgr *lobby.Manager, sub *lobby.Subscription, logger *logrus.Logger) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			switch {
			case closeStatus == websocket.StatusNormalClosure:
				logger.Infof("lobby ws closed normally for %s", sub.Identity.Key())
				return true
			case closeStatus == websocket.StatusGoingAway:
				logger.Infof("lobby ws going away for %s", sub.Identity.Key())
			case strings.Contains(err.Error(), "context canceled"):
			default:
				logger.Warnf("lobby ws read error for %s: %v (CloseStatus: %d)", sub.Identity.Key(), err, closeStatus)
			}
			return false
		}
		if typ != websocket.MessageText {
			logger.Warnf("lobby ws: non-text message type %d from %s, ignoring", typ, sub.Identity.Key())
			continue
		}

		var env clientEnvelope
		if err := json.Unmarshal(msg, &env); err != nil {
			logger.Warnf("lobby ws: invalid json from %s: %v", sub.Identity.Key(), err)
			sub.WriteError("Invalid JSON format.", nil)
			continue
		}

		dispatch(ctx, mgr, sub, env, logger)
	}
}

// dispatch routes one client envelope into the manager. Malformed payloads
// are protocol errors: reply printerror, log, mutate nothing.
func dispatch(ctx context.Context, mgr *lobby.Manager, sub *lobby.Subscription, env clientEnvelope, logger *logrus.Logger) {
	switch env.Action {
	case "createinvite":
		var p invite.CreateParams
		if err := json.Unmarshal(env.Value, &p); err != nil {
			logger.Warnf("lobby ws: bad createinvite payload from %s: %v", sub.Identity.Key(), err)
			sub.WriteError("Malformed createinvite payload.", &env.ID)
			return
		}
		if err := mgr.CreateInvite(ctx, sub, p, env.ID); err != nil {
			logger.Debugf("createinvite rejected for %s: %v", sub.Identity.Key(), err)
		}
	case "cancelinvite":
		var id string
		if err := json.Unmarshal(env.Value, &id); err != nil {
			logger.Warnf("lobby ws: bad cancelinvite payload from %s: %v", sub.Identity.Key(), err)
			sub.WriteError("Malformed cancelinvite payload.", &env.ID)
			return
		}
		if err := mgr.CancelInvite(sub, id, env.ID); err != nil {
			logger.Debugf("cancelinvite rejected for %s: %v", sub.Identity.Key(), err)
		}
	case "acceptinvite":
		var p acceptPayload
		if err := json.Unmarshal(env.Value, &p); err != nil {
			logger.Warnf("lobby ws: bad acceptinvite payload from %s: %v", sub.Identity.Key(), err)
			sub.WriteError("Malformed acceptinvite payload.", &env.ID)
			return
		}
		if err := mgr.AcceptInvite(ctx, sub, p.ID, p.IsPrivate, env.ID); err != nil {
			logger.Debugf("acceptinvite rejected for %s: %v", sub.Identity.Key(), err)
		}
	case "sub":
		if err := mgr.Subscribe(sub); err != nil {
			sub.WriteError("Already subscribed.", nil)
		}
	case "unsub":
		mgr.Unsubscribe(sub.ConnID, true)
	default:
		logger.Warnf("lobby ws: unknown action %q from %s", env.Action, sub.Identity.Key())
		sub.WriteError("Unknown action: "+env.Action, nil)
	}
}

// writePump drains the subscription's OutChan onto the socket and keeps the
// connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, sub *lobby.Subscription, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("lobby ws: failed to marshal outgoing msg for %s: %v", sub.Identity.Key(), err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("lobby ws: write failed for %s: %v", sub.Identity.Key(), err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("lobby ws: ping failed for %s, assuming disconnect: %v", sub.Identity.Key(), err)
				return
			}
		}
	}
}
