package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/office-pools/internal/usecase"
)

func TestStaticFeed_FetchGame(t *testing.T) {
	feed := NewStaticFeed(SeedGames()...)

	game, err := feed.FetchGame(context.Background(), "nfl-2025-sb")
	require.NoError(t, err)
	assert.Equal(t, "Seattle", game.HomeTeam)
	assert.Equal(t, 0, game.Week)

	_, err = feed.FetchGame(context.Background(), "nfl-1999-sb")
	require.ErrorIs(t, err, usecase.ErrNotFound)
	assert.Equal(t, usecase.ClassNotFound, usecase.ClassOf(err))
}

func TestStaticFeed_PutReplacesGame(t *testing.T) {
	feed := NewStaticFeed()
	feed.Put(usecase.ScheduledGame{GameID: "g-1", HomeTeam: "Denver", AwayTeam: "Chicago"})
	feed.Put(usecase.ScheduledGame{GameID: "g-1", HomeTeam: "Denver", AwayTeam: "Miami"})

	game, err := feed.FetchGame(context.Background(), "g-1")
	require.NoError(t, err)
	assert.Equal(t, "Miami", game.AwayTeam)
}

func TestStaticFeed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStaticFeed(SeedGames()...).FetchGame(ctx, "nfl-2025-sb")
	assert.True(t, errors.Is(err, context.Canceled))
}
