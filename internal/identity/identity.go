// internal/identity/identity.go
package identity

import "fmt"

// AuthIdentity is the canonical identity attached to every lobby connection.
// It is a tagged value: either a signed-in member (UserID, Username, Roles,
// Verified) or an anonymous guest identified by its browser cookie.
type AuthIdentity struct {
	SignedIn  bool     `json:"signedIn"`
	UserID    uint32   `json:"user_id,omitempty"`
	Username  string   `json:"username,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Verified  bool     `json:"verified,omitempty"`
	BrowserID string   `json:"browser_id,omitempty"`
}

// Member builds a signed-in identity. Only the auth layer should call this,
// after transport-level authentication succeeded.
func Member(userID uint32, username string, roles []string, verified bool) AuthIdentity {
	return AuthIdentity{
		SignedIn: true,
		UserID:   userID,
		Username: username,
		Roles:    roles,
		Verified: verified,
	}
}

// Guest builds an anonymous identity from the server-issued browser cookie.
func Guest(browserID string) AuthIdentity {
	return AuthIdentity{BrowserID: browserID}
}

// Equal reports whether two identities denote the same owner. A guest and a
// member are never equal, even if the member's connection carries the same
// browser cookie.
func (a AuthIdentity) Equal(b AuthIdentity) bool {
	if a.SignedIn != b.SignedIn {
		return false
	}
	if a.SignedIn {
		return a.UserID == b.UserID
	}
	return a.BrowserID == b.BrowserID
}

// Key returns a stable string key for map indexing. Members and guests live
// in disjoint keyspaces.
func (a AuthIdentity) Key() string {
	if a.SignedIn {
		return fmt.Sprintf("member:%d", a.UserID)
	}
	return "guest:" + a.BrowserID
}

// HasRole reports whether a signed-in identity carries the given role.
// Guests have no roles.
func (a AuthIdentity) HasRole(role string) bool {
	if !a.SignedIn {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DisplayName returns the member username, or a placeholder for guests.
func (a AuthIdentity) DisplayName() string {
	if a.SignedIn {
		return a.Username
	}
	return "(Guest)"
}

// RoleOwner is the staff role that bypasses the restart gate.
const RoleOwner = "owner"
