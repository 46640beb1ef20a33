// internal/handlers/lobby_ws_test.go
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varchess/lobby/internal/games"
	"github.com/varchess/lobby/internal/identity"
	"github.com/varchess/lobby/internal/lobby"
	"github.com/varchess/lobby/internal/metrics"
	"github.com/varchess/lobby/internal/rating"
	"github.com/varchess/lobby/internal/restart"
)

func newTestDeps(t *testing.T) (*lobby.Manager, *lobby.Subscription) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m := metrics.New(prometheus.NewRegistry())
	mgr := lobby.NewManager(lobby.Deps{
		Games:   games.NewRegistry(logger, m),
		Ratings: rating.Static{},
		Restart: restart.Static{},
		Logger:  logger,
		Metrics: m,
	})
	sub := &lobby.Subscription{
		ConnID:   uuid.New(),
		Identity: identity.Guest("b1"),
		Locale:   "en",
		OutChan:  make(chan map[string]interface{}, 32),
	}
	require.NoError(t, mgr.Subscribe(sub))
	return mgr, sub
}

func drainSub(sub *lobby.Subscription) []map[string]interface{} {
	var out []map[string]interface{}
	for {
		select {
		case msg := <-sub.OutChan:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestDispatchCreateInvite(t *testing.T) {
	mgr, sub := newTestDeps(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	drainSub(sub)

	raw := []byte(`{"action":"createinvite","value":{"variant":"Classical","clock":"600+0","color":"Neutral","rated":"casual","publicity":"public","tag":"AAAAAAAA"},"id":4}`)
	var env clientEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	dispatch(context.Background(), mgr, sub, env, logger)

	require.Equal(t, 1, mgr.InviteCount())
	msgs := drainSub(sub)
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, "inviteslist", last["action"])
	assert.Equal(t, uint32(4), last["replyTo"])
}

func TestDispatchMalformedPayload(t *testing.T) {
	mgr, sub := newTestDeps(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	drainSub(sub)

	env := clientEnvelope{Action: "createinvite", Value: json.RawMessage(`"not an object"`), ID: 9}
	dispatch(context.Background(), mgr, sub, env, logger)

	assert.Equal(t, 0, mgr.InviteCount(), "protocol errors never mutate state")
	msgs := drainSub(sub)
	require.Len(t, msgs, 1)
	assert.Equal(t, "printerror", msgs[0]["action"])
	assert.Equal(t, uint32(9), msgs[0]["replyTo"])
}

func TestDispatchUnknownAction(t *testing.T) {
	mgr, sub := newTestDeps(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	drainSub(sub)

	dispatch(context.Background(), mgr, sub, clientEnvelope{Action: "teleport"}, logger)
	assert.Equal(t, 0, mgr.InviteCount())
	msgs := drainSub(sub)
	require.Len(t, msgs, 1)
	assert.Equal(t, "printerror", msgs[0]["action"])
}

func TestDispatchUnsubDropsInvites(t *testing.T) {
	mgr, sub := newTestDeps(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := clientEnvelope{
		Action: "createinvite",
		Value:  json.RawMessage(`{"variant":"Classical","clock":"600+0","color":"Neutral","rated":"casual","publicity":"public","tag":"AAAAAAAA"}`),
		ID:     1,
	}
	dispatch(context.Background(), mgr, sub, env, logger)
	require.Equal(t, 1, mgr.InviteCount())

	dispatch(context.Background(), mgr, sub, clientEnvelope{Action: "unsub"}, logger)
	assert.Equal(t, 0, mgr.InviteCount(), "unsub is a by-choice exit: invites drop immediately")
	assert.Equal(t, 0, mgr.SubscriberCount())
}

func TestRequestLocale(t *testing.T) {
	r := httptest.NewRequest("GET", "/lobby/ws?locale=fr", nil)
	assert.Equal(t, "fr", requestLocale(r))

	r = httptest.NewRequest("GET", "/lobby/ws", nil)
	r.Header.Set("Accept-Language", "pt-BR;q=0.9, en;q=0.8")
	assert.Equal(t, "pt-BR", requestLocale(r))

	r = httptest.NewRequest("GET", "/lobby/ws", nil)
	assert.Equal(t, "", requestLocale(r))
}
