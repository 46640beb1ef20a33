// internal/invite/invite.go

// Package invite defines the invite record, the validation of client-supplied
// creation parameters, and the sanitized projection broadcast to peers.
package invite

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/varchess/lobby/internal/identity"
	"github.com/varchess/lobby/internal/variants"
)

// Color is the side the owner wants to play.
type Color string

const (
	ColorWhite   Color = "White"
	ColorBlack   Color = "Black"
	ColorNeutral Color = "Neutral"
)

// Rated distinguishes rated from casual invites.
type Rated string

const (
	RatedCasual Rated = "casual"
	RatedRated  Rated = "rated"
)

// Publicity controls whether the invite appears in the public catalogue or is
// reachable by code only.
type Publicity string

const (
	PublicityPublic  Publicity = "public"
	PublicityPrivate Publicity = "private"
)

// IDLength is the length of a generated invite id (base36).
const IDLength = 5

// TagLength is the exact length of the client-supplied correlation tag.
const TagLength = 8

// UsernameContainer is the displayable owner descriptor placed on the invite
// at creation time. Rating is present only for members on a leaderboard.
type UsernameContainer struct {
	Type     string `json:"type"` // "player" or "guest"
	Username string `json:"username"`
	Rating   *int   `json:"rating,omitempty"`
}

// Invite is a standing offer by one player to start a game.
type Invite struct {
	ID        string                `json:"id"`
	Owner     identity.AuthIdentity `json:"owner"`
	Name      UsernameContainer     `json:"usernameContainer"`
	Tag       string                `json:"tag"`
	Variant   string                `json:"variant"`
	Clock     string                `json:"clock"`
	Color     Color                 `json:"color"`
	Rated     Rated                 `json:"rated"`
	Publicity Publicity             `json:"publicity"`
}

// SafeInvite is the peer-visible projection of an Invite with every
// owner-identifying field stripped.
type SafeInvite struct {
	ID        string            `json:"id"`
	Name      UsernameContainer `json:"usernameContainer"`
	Tag       string            `json:"tag"`
	Variant   string            `json:"variant"`
	Clock     string            `json:"clock"`
	Color     Color             `json:"color"`
	Rated     Rated             `json:"rated"`
	Publicity Publicity         `json:"publicity"`
}

// Safe returns the sanitized projection of the invite.
func (inv *Invite) Safe() SafeInvite {
	return SafeInvite{
		ID:        inv.ID,
		Name:      inv.Name,
		Tag:       inv.Tag,
		Variant:   inv.Variant,
		Clock:     inv.Clock,
		Color:     inv.Color,
		Rated:     inv.Rated,
		Publicity: inv.Publicity,
	}
}

// IsPublic reports whether the invite appears in the public catalogue.
func (inv *Invite) IsPublic() bool {
	return inv.Publicity == PublicityPublic
}

// CreateParams is the client payload of a createinvite command.
type CreateParams struct {
	Variant   string    `json:"variant"`
	Clock     string    `json:"clock"`
	Color     Color     `json:"color"`
	Rated     Rated     `json:"rated"`
	Publicity Publicity `json:"publicity"`
	Tag       string    `json:"tag"`
}

// ErrInvalidParams is returned for any structurally or semantically invalid
// creation request. The client gets a single generic printerror; details go
// to the log.
var ErrInvalidParams = errors.New("invalid invite parameters")

// ErrNeedsVerification is returned when a rated invite is requested by a
// guest or an unverified member.
var ErrNeedsVerification = errors.New("rated play requires a verified account")

// Validate checks the cross-field constraints of a creation request against
// the requesting identity. It returns ErrNeedsVerification for the one
// failure the client is softly notified about, and a wrapped ErrInvalidParams
// for everything else.
func Validate(p CreateParams, owner identity.AuthIdentity) error {
	if len(p.Tag) != TagLength {
		return fmt.Errorf("%w: tag must be exactly %d chars", ErrInvalidParams, TagLength)
	}
	if !variants.IsVariantValid(p.Variant) {
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidParams, p.Variant)
	}
	if !variants.IsClockValid(p.Clock) {
		return fmt.Errorf("%w: malformed clock %q", ErrInvalidParams, p.Clock)
	}
	switch p.Color {
	case ColorWhite, ColorBlack, ColorNeutral:
	default:
		return fmt.Errorf("%w: unknown color %q", ErrInvalidParams, p.Color)
	}
	switch p.Publicity {
	case PublicityPublic, PublicityPrivate:
	default:
		return fmt.Errorf("%w: unknown publicity %q", ErrInvalidParams, p.Publicity)
	}
	switch p.Rated {
	case RatedCasual:
	case RatedRated:
		if _, ok := variants.Leaderboard(p.Variant); !ok {
			return fmt.Errorf("%w: variant %q has no leaderboard", ErrInvalidParams, p.Variant)
		}
		if variants.IsClockUntimed(p.Clock) {
			return fmt.Errorf("%w: rated games must be timed", ErrInvalidParams)
		}
		if p.Color != ColorNeutral && p.Publicity != PublicityPrivate {
			return fmt.Errorf("%w: public rated invites must be color-neutral", ErrInvalidParams)
		}
		if !owner.SignedIn || !owner.Verified {
			return ErrNeedsVerification
		}
	default:
		return fmt.Errorf("%w: unknown rated value %q", ErrInvalidParams, p.Rated)
	}
	return nil
}

const idCharset = "0123456789abcdefghijklmnopqrstuvwxyz"

// maxIDAttempts bounds the collision-retry loop of GenerateID. At realistic
// lobby sizes a single collision is already vanishingly unlikely.
const maxIDAttempts = 20

// ErrIDSpaceExhausted is returned when GenerateID fails to find a free id
// within its attempt bound.
var ErrIDSpaceExhausted = errors.New("could not generate a unique invite id")

// GenerateID draws random 5-char base36 ids until one is not reported in use.
func GenerateID(inUse func(string) bool) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := randomID()
		if err != nil {
			return "", err
		}
		if !inUse(id) {
			return id, nil
		}
	}
	return "", ErrIDSpaceExhausted
}

func randomID() (string, error) {
	buf := make([]byte, IDLength)
	max := big.NewInt(int64(len(idCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("invite id entropy: %w", err)
		}
		buf[i] = idCharset[n.Int64()]
	}
	return string(buf), nil
}
