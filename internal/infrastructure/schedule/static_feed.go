package schedule

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/usecase"
)

// StaticFeed serves a fixed set of games keyed by external game id.
type StaticFeed struct {
	mu    sync.RWMutex
	games map[string]usecase.ScheduledGame
}

func NewStaticFeed(games ...usecase.ScheduledGame) *StaticFeed {
	f := &StaticFeed{games: make(map[string]usecase.ScheduledGame, len(games))}
	for _, g := range games {
		f.games[g.GameID] = g
	}
	return f
}

func (f *StaticFeed) Put(game usecase.ScheduledGame) {
	f.mu.Lock()
	f.games[game.GameID] = game
	f.mu.Unlock()
}

func (f *StaticFeed) FetchGame(ctx context.Context, gameID string) (usecase.ScheduledGame, error) {
	if err := ctx.Err(); err != nil {
		return usecase.ScheduledGame{}, crerr.Wrapf(err, "fetch game %s", gameID)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	g, ok := f.games[gameID]
	if !ok {
		return usecase.ScheduledGame{}, crerr.WithDetailf(crerr.Wrapf(usecase.ErrNotFound, "game=%s", gameID), "feed holds %d games", len(f.games))
	}
	return g, nil
}

// SeedGames is the demo slate used when no external feed is configured.
func SeedGames() []usecase.ScheduledGame {
	kickoff := time.Date(2026, time.February, 8, 23, 30, 0, 0, time.UTC)
	return []usecase.ScheduledGame{
		{GameID: "nfl-2025-sb", HomeTeam: "Seattle", AwayTeam: "New England", StartTime: kickoff, Favorite: matchup.SideHome},
		{GameID: "nfl-2025-w1-kc-bal", HomeTeam: "Kansas City", AwayTeam: "Baltimore", StartTime: kickoff.AddDate(0, 7, -3), Favorite: matchup.SideHome, Week: 1},
		{GameID: "nfl-2025-w1-phi-dal", HomeTeam: "Philadelphia", AwayTeam: "Dallas", StartTime: kickoff.AddDate(0, 7, -2), Favorite: matchup.SideHome, Week: 1},
		{GameID: "nfl-2025-w2-buf-nyj", HomeTeam: "Buffalo", AwayTeam: "New York", StartTime: kickoff.AddDate(0, 7, 4), Favorite: matchup.SideHome, Week: 2},
		{GameID: "nfl-2025-w2-det-gb", HomeTeam: "Detroit", AwayTeam: "Green Bay", StartTime: kickoff.AddDate(0, 7, 5), Favorite: matchup.SideAway, Week: 2},
	}
}
