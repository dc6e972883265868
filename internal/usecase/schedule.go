package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
)

// ScheduledGame is the seed data the schedule feed supplies for one external game id.
type ScheduledGame struct {
	GameID    string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	Favorite  matchup.Side
	Week      int
}

// ScheduleProvider is the read-only schedule feed. A missing game returns ErrNotFound.
type ScheduleProvider interface {
	FetchGame(ctx context.Context, gameID string) (ScheduledGame, error)
}
