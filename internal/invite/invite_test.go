// internal/invite/invite_test.go
package invite

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varchess/lobby/internal/identity"
)

func casualParams() CreateParams {
	return CreateParams{
		Variant:   "Classical",
		Clock:     "600+0",
		Color:     ColorNeutral,
		Rated:     RatedCasual,
		Publicity: PublicityPublic,
		Tag:       "AAAAAAAA",
	}
}

func TestValidateCasual(t *testing.T) {
	assert.NoError(t, Validate(casualParams(), identity.Guest("b1")))

	p := casualParams()
	p.Color = ColorWhite
	p.Publicity = PublicityPrivate
	p.Clock = "-"
	assert.NoError(t, Validate(p, identity.Guest("b1")), "casual untimed colored private is fine")
}

func TestValidateRejectsBadFields(t *testing.T) {
	verified := identity.Member(1, "alice", nil, true)

	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"short tag", func(p *CreateParams) { p.Tag = "AAAA" }},
		{"long tag", func(p *CreateParams) { p.Tag = strings.Repeat("A", 9) }},
		{"unknown variant", func(p *CreateParams) { p.Variant = "Bughouse" }},
		{"bad clock", func(p *CreateParams) { p.Clock = "600" }},
		{"bad color", func(p *CreateParams) { p.Color = "Purple" }},
		{"bad publicity", func(p *CreateParams) { p.Publicity = "unlisted" }},
		{"bad rated", func(p *CreateParams) { p.Rated = "ranked" }},
		{"rated untimed", func(p *CreateParams) { p.Rated = RatedRated; p.Clock = "-" }},
		{"rated colored public", func(p *CreateParams) { p.Rated = RatedRated; p.Color = ColorWhite }},
		{"rated no leaderboard", func(p *CreateParams) { p.Rated = RatedRated; p.Variant = "Omega" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := casualParams()
			tc.mutate(&p)
			err := Validate(p, verified)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestValidateRatedEligibility(t *testing.T) {
	p := casualParams()
	p.Rated = RatedRated

	assert.ErrorIs(t, Validate(p, identity.Guest("b1")), ErrNeedsVerification)
	assert.ErrorIs(t, Validate(p, identity.Member(1, "alice", nil, false)), ErrNeedsVerification)
	assert.NoError(t, Validate(p, identity.Member(1, "alice", nil, true)))

	// Rated with a chosen color is allowed when private.
	p.Color = ColorBlack
	p.Publicity = PublicityPrivate
	assert.NoError(t, Validate(p, identity.Member(1, "alice", nil, true)))
}

func TestGenerateID(t *testing.T) {
	id, err := GenerateID(func(string) bool { return false })
	require.NoError(t, err)
	assert.Len(t, id, IDLength)
	for _, r := range id {
		assert.Contains(t, idCharset, string(r))
	}
}

func TestGenerateIDRetriesAndBounds(t *testing.T) {
	// First two draws collide, third is free.
	calls := 0
	id, err := GenerateID(func(string) bool {
		calls++
		return calls <= 2
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 3, calls)

	// Everything in use: the generator gives up instead of spinning.
	_, err = GenerateID(func(string) bool { return true })
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
}

func TestSafeStripsOwner(t *testing.T) {
	inv := &Invite{
		ID:        "ab12z",
		Owner:     identity.Member(9, "carol", nil, true),
		Name:      UsernameContainer{Type: "player", Username: "carol"},
		Tag:       "BBBBBBBB",
		Variant:   "Classical",
		Clock:     "180+2",
		Color:     ColorNeutral,
		Rated:     RatedRated,
		Publicity: PublicityPublic,
	}
	safe := inv.Safe()
	assert.Equal(t, inv.ID, safe.ID)
	assert.Equal(t, inv.Name, safe.Name)
	assert.Equal(t, inv.Variant, safe.Variant)
	// SafeInvite has no owner field at all; check the JSON shape too.
	raw, err := json.Marshal(safe)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.NotContains(t, m, "owner")
	assert.NotContains(t, m, "browser_id")
}
