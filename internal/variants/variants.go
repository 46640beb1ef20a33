// internal/variants/variants.go

// Package variants knows which game variants exist, which of them carry a
// rated leaderboard, and what a well-formed clock string looks like.
package variants

import (
	"strconv"
	"strings"
)

// LeaderboardInfinity is the catch-all leaderboard used for display ratings
// when a variant has no leaderboard of its own.
const LeaderboardInfinity = "infinity"

// leaderboards maps variant name -> leaderboard id. A variant missing from
// this map is casual-only. Variant names are case-sensitive and match what
// clients send.
var leaderboards = map[string]string{
	"Classical":          "classical",
	"Classical+":         "classical",
	"Confined_Classical": "classical",
	"CoaIP":              "coaip",
}

// variants is the full set of playable variants, rated or not.
var variants = map[string]struct{}{
	"Classical":          {},
	"Classical+":         {},
	"Confined_Classical": {},
	"CoaIP":              {},
	"Knighted_Chess":     {},
	"Pawndard":           {},
	"Core":               {},
	"Standarch":          {},
	"Abundance":          {},
	"Pawn_Horde":         {},
	"Space_Classic":      {},
	"Space":              {},
	"Obstocean":          {},
	"Omega":              {},
	"Omega_Squared":      {},
	"Omega_Cubed":        {},
}

// ClockUntimed is the sentinel clock value for untimed games.
const ClockUntimed = "-"

// IsVariantValid reports whether v names a playable variant.
func IsVariantValid(v string) bool {
	_, ok := variants[v]
	return ok
}

// Leaderboard returns the leaderboard id for a variant, if it has one.
func Leaderboard(v string) (string, bool) {
	lb, ok := leaderboards[v]
	return lb, ok
}

// IsClockValid reports whether c is "-" (untimed) or "base+inc" with base in
// seconds > 0 and increment in seconds >= 0.
func IsClockValid(c string) bool {
	if c == ClockUntimed {
		return true
	}
	base, inc, ok := strings.Cut(c, "+")
	if !ok {
		return false
	}
	b, err := strconv.Atoi(base)
	if err != nil || b <= 0 {
		return false
	}
	i, err := strconv.Atoi(inc)
	if err != nil || i < 0 {
		return false
	}
	return true
}

// IsClockUntimed reports whether c is the untimed sentinel.
func IsClockUntimed(c string) bool {
	return c == ClockUntimed
}
