// internal/lobby/store.go
package lobby

import (
	"errors"

	"github.com/varchess/lobby/internal/identity"
	"github.com/varchess/lobby/internal/invite"
)

// Store is the ordered collection of live invites, public and private.
// Insertion order is preserved so every broadcast lists invites
// deterministically.
//
// Store is not internally locked: the Manager serializes all access to it,
// the subscriber registry and the grace timers under one mutex.
type Store struct {
	invites []*invite.Invite
}

// NewStore returns an empty invite store.
func NewStore() *Store {
	return &Store{}
}

var (
	// ErrOwnerHasInvite means the owner already has a live invite.
	ErrOwnerHasInvite = errors.New("owner already has a live invite")
	// ErrIDCollision means an invite with the same id is already live.
	ErrIDCollision = errors.New("invite id already in use")
)

// Add appends an invite. It refuses a second invite for the same owner and
// refuses an id collision.
func (s *Store) Add(inv *invite.Invite) error {
	if s.OwnedBy(inv.Owner) {
		return ErrOwnerHasInvite
	}
	if s.IDInUse(inv.ID) {
		return ErrIDCollision
	}
	s.invites = append(s.invites, inv)
	return nil
}

// RemoveByID removes and returns the invite with the given id, or nil.
func (s *Store) RemoveByID(id string) *invite.Invite {
	for i, inv := range s.invites {
		if inv.ID == id {
			s.invites = append(s.invites[:i], s.invites[i+1:]...)
			return inv
		}
	}
	return nil
}

// RemoveByOwner removes every invite owned by ident. publicDeleted reports
// whether any removed invite was public, i.e. whether the shared catalogue
// changed.
func (s *Store) RemoveByOwner(ident identity.AuthIdentity) (removed []*invite.Invite, publicDeleted bool) {
	kept := s.invites[:0]
	for _, inv := range s.invites {
		if inv.Owner.Equal(ident) {
			removed = append(removed, inv)
			if inv.IsPublic() {
				publicDeleted = true
			}
			continue
		}
		kept = append(kept, inv)
	}
	s.invites = kept
	return removed, publicDeleted
}

// FindByID returns the invite with the given id and its position.
func (s *Store) FindByID(id string) (*invite.Invite, int, bool) {
	for i, inv := range s.invites {
		if inv.ID == id {
			return inv, i, true
		}
	}
	return nil, 0, false
}

// OwnedBy reports whether ident owns any live invite.
func (s *Store) OwnedBy(ident identity.AuthIdentity) bool {
	for _, inv := range s.invites {
		if inv.Owner.Equal(ident) {
			return true
		}
	}
	return false
}

// IDInUse reports whether id collides with a live invite.
func (s *Store) IDInUse(id string) bool {
	_, _, ok := s.FindByID(id)
	return ok
}

// Len returns the number of live invites.
func (s *Store) Len() int {
	return len(s.invites)
}

// PublicSnapshot returns a sanitized copy of every public invite, in order.
func (s *Store) PublicSnapshot() []invite.SafeInvite {
	out := make([]invite.SafeInvite, 0, len(s.invites))
	for _, inv := range s.invites {
		if inv.IsPublic() {
			out = append(out, inv.Safe())
		}
	}
	return out
}

// PrivateOwnedBy returns a sanitized copy of ident's private invites.
func (s *Store) PrivateOwnedBy(ident identity.AuthIdentity) []invite.SafeInvite {
	var out []invite.SafeInvite
	for _, inv := range s.invites {
		if !inv.IsPublic() && inv.Owner.Equal(ident) {
			out = append(out, inv.Safe())
		}
	}
	return out
}
