package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
	"github.com/riskibarqy/office-pools/internal/domain/scoreboard"
	"github.com/riskibarqy/office-pools/internal/domain/user"
	"github.com/riskibarqy/office-pools/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/office-pools/internal/platform/cache"
	"github.com/riskibarqy/office-pools/internal/platform/id"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/platform/random"
	"github.com/riskibarqy/office-pools/internal/platform/resilience"
)

var (
	commissioner = user.Principal{UserID: "commish", IsCommissioner: true}
	userA        = user.Principal{UserID: "user-a"}
	userB        = user.Principal{UserID: "user-b"}
)

// identitySource leaves digit shuffles untouched so axes read 0..9 in order. Larger ranges
// (invite code characters) step through a counter so codes stay distinct.
type identitySource struct {
	mu   sync.Mutex
	next int
}

func (s *identitySource) IntN(n int) (int, error) {
	if n <= random.DigitCount {
		return n - 1, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next % n, nil
}

func fastRetrier() *resilience.Retrier {
	return resilience.NewRetrier(resilience.RetryConfig{MaxAttempts: 3})
}

type testEnv struct {
	pools      *memory.PoolRepository
	slots      claim.Repository
	matchups   *memory.MatchupRepository
	boards     *memory.ScoreboardRepository
	feed       *stubSchedule
	poolSvc    *PoolService
	claimSvc   *ClaimService
	matchupSvc *MatchupService
	scoreSvc   *ScoreboardService
	rescoreSvc *RescoreService
}

func newTestEnv(slots claim.Repository) *testEnv {
	if slots == nil {
		slots = memory.NewSlotRepository()
	}
	logger := logging.NewNop()
	retrier := fastRetrier()

	env := &testEnv{
		pools:    memory.NewPoolRepository(),
		slots:    slots,
		matchups: memory.NewMatchupRepository(),
		boards:   memory.NewScoreboardRepository(),
		feed:     newStubSchedule(),
	}

	env.scoreSvc = NewScoreboardService(env.pools, env.slots, env.matchups, env.boards, cache.NewStore[scoreboard.Snapshot](time.Minute), retrier)
	env.scoreSvc.SetLogger(logger)

	env.poolSvc = NewPoolService(env.pools, env.slots, random.NewAssignerWithSource(&identitySource{}, logger), &id.Sequence{Prefix: "pool"}, retrier)
	env.poolSvc.SetLogger(logger)
	env.poolSvc.SetScoreboardInvalidator(env.scoreSvc)

	env.claimSvc = NewClaimService(env.pools, env.slots, retrier)
	env.claimSvc.SetLogger(logger)
	env.claimSvc.SetScoreboardInvalidator(env.scoreSvc)

	env.matchupSvc = NewMatchupService(env.pools, env.matchups, env.feed, &id.Sequence{Prefix: "matchup"}, retrier)
	env.matchupSvc.SetLogger(logger)
	env.matchupSvc.SetScoreboardInvalidator(env.scoreSvc)

	env.rescoreSvc = NewRescoreService(env.poolSvc, env.scoreSvc, 2)
	env.rescoreSvc.SetLogger(logger)
	return env
}

type stubSchedule struct {
	mu       sync.Mutex
	games    map[string]ScheduledGame
	failures map[string]int
	calls    map[string]int
}

func newStubSchedule(games ...ScheduledGame) *stubSchedule {
	s := &stubSchedule{
		games:    make(map[string]ScheduledGame),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
	for _, g := range games {
		s.games[g.GameID] = g
	}
	return s
}

func (s *stubSchedule) add(g ScheduledGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.GameID] = g
}

func (s *stubSchedule) FetchGame(_ context.Context, gameID string) (ScheduledGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[gameID]++
	if s.failures[gameID] > 0 {
		s.failures[gameID]--
		return ScheduledGame{}, fmt.Errorf("schedule feed timeout")
	}
	g, ok := s.games[gameID]
	if !ok {
		return ScheduledGame{}, fmt.Errorf("%w: game=%s", ErrNotFound, gameID)
	}
	return g, nil
}
