// internal/rating/rating.go

// Package rating resolves a member's displayable elo on a leaderboard.
package rating

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Provider yields the current displayable elo for (userID, leaderboard).
// A provider returning ErrNoRating means the user is unrated there; any other
// error means the lookup itself failed and the caller proceeds without a
// rating.
type Provider interface {
	Rating(ctx context.Context, userID uint32, leaderboard string) (int, error)
}

// ErrNoRating indicates the user has no rating on the requested leaderboard.
var ErrNoRating = errors.New("no rating on leaderboard")

// PostgresProvider reads ratings from the leaderboards table.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresProvider wraps an existing pgx pool.
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// Rating returns the elo stored for the user on the given leaderboard.
func (p *PostgresProvider) Rating(ctx context.Context, userID uint32, leaderboard string) (int, error) {
	const q = `SELECT elo FROM leaderboards WHERE user_id = $1 AND leaderboard_id = $2`
	var elo int
	err := p.pool.QueryRow(ctx, q, userID, leaderboard).Scan(&elo)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNoRating
	}
	if err != nil {
		return 0, err
	}
	return elo, nil
}

// Static is a fixed in-memory provider, used in tests and when no database is
// configured.
type Static struct {
	// Ratings maps userID -> leaderboard -> elo.
	Ratings map[uint32]map[string]int
}

// Rating implements Provider.
func (s Static) Rating(_ context.Context, userID uint32, leaderboard string) (int, error) {
	if byLB, ok := s.Ratings[userID]; ok {
		if elo, ok := byLB[leaderboard]; ok {
			return elo, nil
		}
	}
	return 0, ErrNoRating
}
