package matchup

import "context"

// Repository describes matchup persistence needs from use cases. SavePick writes a single user's
// pick without rewriting the rest of the matchup.
type Repository interface {
	Create(ctx context.Context, m Matchup) error
	GetByID(ctx context.Context, matchupID string) (Matchup, bool, error)
	ListByPool(ctx context.Context, poolID string) ([]Matchup, error)
	Update(ctx context.Context, m Matchup) error
	SavePick(ctx context.Context, matchupID, userID string, side Side) error
}
