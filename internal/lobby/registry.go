// internal/lobby/registry.go
package lobby

import (
	"errors"

	"github.com/google/uuid"

	"github.com/varchess/lobby/internal/identity"
)

// Registry is the set of connections currently watching the lobby, indexed
// by connection id. Like Store, it is serialized by the Manager.
type Registry struct {
	subs  map[uuid.UUID]*Subscription
	order []uuid.UUID
}

// NewRegistry returns an empty subscriber registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[uuid.UUID]*Subscription)}
}

// ErrAlreadySubscribed means a connection tried to subscribe twice. That is
// a client programming error, not a normal race.
var ErrAlreadySubscribed = errors.New("connection already subscribed to the lobby")

// Add registers a subscription, refusing a double-add for the same conn id.
func (r *Registry) Add(sub *Subscription) error {
	if _, exists := r.subs[sub.ConnID]; exists {
		return ErrAlreadySubscribed
	}
	r.subs[sub.ConnID] = sub
	r.order = append(r.order, sub.ConnID)
	return nil
}

// Remove drops a subscription by conn id and returns it, or nil.
func (r *Registry) Remove(connID uuid.UUID) *Subscription {
	sub, ok := r.subs[connID]
	if !ok {
		return nil
	}
	delete(r.subs, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return sub
}

// Get returns the subscription for a conn id.
func (r *Registry) Get(connID uuid.UUID) (*Subscription, bool) {
	sub, ok := r.subs[connID]
	return sub, ok
}

// All returns the subscriptions in subscription order.
func (r *Registry) All() []*Subscription {
	out := make([]*Subscription, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.subs[id])
	}
	return out
}

// AnyFor reports whether any subscribed connection carries ident.
func (r *Registry) AnyFor(ident identity.AuthIdentity) bool {
	_, ok := r.FindFor(ident)
	return ok
}

// FindFor returns the first subscribed connection carrying ident.
func (r *Registry) FindFor(ident identity.AuthIdentity) (*Subscription, bool) {
	for _, id := range r.order {
		if sub := r.subs[id]; sub.Identity.Equal(ident) {
			return sub, true
		}
	}
	return nil, false
}

// Len returns the number of subscribed connections.
func (r *Registry) Len() int {
	return len(r.subs)
}
