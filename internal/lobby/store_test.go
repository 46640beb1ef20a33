// internal/lobby/store_test.go
package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varchess/lobby/internal/identity"
	"github.com/varchess/lobby/internal/invite"
)

func mkInvite(id string, owner identity.AuthIdentity, pub invite.Publicity) *invite.Invite {
	return &invite.Invite{
		ID:        id,
		Owner:     owner,
		Name:      invite.UsernameContainer{Type: "guest", Username: "(Guest)"},
		Tag:       "AAAAAAAA",
		Variant:   "Classical",
		Clock:     "600+0",
		Color:     invite.ColorNeutral,
		Rated:     invite.RatedCasual,
		Publicity: pub,
	}
}

func TestStoreAddRefusals(t *testing.T) {
	s := NewStore()
	g1 := identity.Guest("b1")
	g2 := identity.Guest("b2")

	require.NoError(t, s.Add(mkInvite("aaaaa", g1, invite.PublicityPublic)))

	err := s.Add(mkInvite("bbbbb", g1, invite.PublicityPrivate))
	assert.ErrorIs(t, err, ErrOwnerHasInvite, "one live invite per owner")

	err = s.Add(mkInvite("aaaaa", g2, invite.PublicityPublic))
	assert.ErrorIs(t, err, ErrIDCollision)

	assert.Equal(t, 1, s.Len())
}

func TestStoreRemoveByID(t *testing.T) {
	s := NewStore()
	g1 := identity.Guest("b1")
	require.NoError(t, s.Add(mkInvite("aaaaa", g1, invite.PublicityPublic)))

	removed := s.RemoveByID("aaaaa")
	require.NotNil(t, removed)
	assert.Equal(t, "aaaaa", removed.ID)
	assert.Nil(t, s.RemoveByID("aaaaa"))
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.OwnedBy(g1))
}

func TestStoreRemoveByOwner(t *testing.T) {
	s := NewStore()
	g1 := identity.Guest("b1")
	g2 := identity.Guest("b2")
	require.NoError(t, s.Add(mkInvite("aaaaa", g1, invite.PublicityPrivate)))
	require.NoError(t, s.Add(mkInvite("bbbbb", g2, invite.PublicityPublic)))

	removed, publicDeleted := s.RemoveByOwner(g1)
	assert.Len(t, removed, 1)
	assert.False(t, publicDeleted, "only a private invite was removed")

	removed, publicDeleted = s.RemoveByOwner(g2)
	assert.Len(t, removed, 1)
	assert.True(t, publicDeleted)

	removed, publicDeleted = s.RemoveByOwner(g1)
	assert.Empty(t, removed)
	assert.False(t, publicDeleted)
}

func TestStoreSnapshotsOrderedAndSanitized(t *testing.T) {
	s := NewStore()
	g1 := identity.Guest("b1")
	m1 := identity.Member(7, "alice", nil, true)
	g3 := identity.Guest("b3")
	require.NoError(t, s.Add(mkInvite("aaaaa", g1, invite.PublicityPublic)))
	require.NoError(t, s.Add(mkInvite("bbbbb", m1, invite.PublicityPrivate)))
	require.NoError(t, s.Add(mkInvite("ccccc", g3, invite.PublicityPublic)))

	pub := s.PublicSnapshot()
	require.Len(t, pub, 2)
	assert.Equal(t, "aaaaa", pub[0].ID, "insertion order preserved")
	assert.Equal(t, "ccccc", pub[1].ID)

	own := s.PrivateOwnedBy(m1)
	require.Len(t, own, 1)
	assert.Equal(t, "bbbbb", own[0].ID)

	assert.Empty(t, s.PrivateOwnedBy(g1), "public invites are not in the private view")
}
