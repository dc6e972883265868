package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	concpool "github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/user"
	"github.com/riskibarqy/office-pools/internal/platform/id"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/platform/resilience"
)

const defaultImportConcurrency = 4

type ImportMatchupsInput struct {
	PoolID  string
	GameIDs []string
	Week    int
	Actor   user.Principal
}

type RecordScoreInput struct {
	MatchupID string
	Period    matchup.Period
	Score     matchup.Score
	Completed bool
	Actor     user.Principal
}

type SubmitPickInput struct {
	MatchupID string
	Side      matchup.Side
	Actor     user.Principal
}

type MatchupService struct {
	poolRepo    pool.Repository
	matchupRepo matchup.Repository
	schedule    ScheduleProvider
	idGen       id.Generator
	retrier     *resilience.Retrier
	logger      *logging.Logger
	scoreboards scoreboardInvalidator
	concurrency int
	now         func() time.Time
}

func NewMatchupService(
	poolRepo pool.Repository,
	matchupRepo matchup.Repository,
	schedule ScheduleProvider,
	idGen id.Generator,
	retrier *resilience.Retrier,
) *MatchupService {
	if idGen == nil {
		idGen = id.NewUUIDGenerator()
	}
	return &MatchupService{
		poolRepo:    poolRepo,
		matchupRepo: matchupRepo,
		schedule:    schedule,
		idGen:       idGen,
		retrier:     defaultRetrier(retrier),
		logger:      logging.Default(),
		concurrency: defaultImportConcurrency,
		now:         time.Now,
	}
}

func (s *MatchupService) SetLogger(logger *logging.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *MatchupService) SetScoreboardInvalidator(inv scoreboardInvalidator) {
	s.scoreboards = inv
}

func (s *MatchupService) SetImportConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// ImportMatchups creates pending matchups for gameIDs, fetching them from the schedule feed in
// parallel. Games already imported into the pool are returned as they are.
func (s *MatchupService) ImportMatchups(ctx context.Context, input ImportMatchupsInput) ([]matchup.Matchup, error) {
	ctx, span := startSpan(ctx, "MatchupService.ImportMatchups")
	defer span.End()

	if s.schedule == nil {
		return nil, fmt.Errorf("%w: schedule provider is not configured", ErrDependencyUnavailable)
	}
	if input.Week < 0 {
		return nil, fmt.Errorf("%w: week must be non-negative", ErrInvalidInput)
	}
	gameIDs, err := normalizeIDs(input.GameIDs)
	if err != nil {
		return nil, err
	}
	if len(gameIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one game id is required", ErrInvalidInput)
	}

	item, err := s.administeredPool(ctx, input.PoolID, input.Actor)
	if err != nil {
		return nil, err
	}

	existing, err := s.listByPool(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	byGame := make(map[string]matchup.Matchup, len(existing))
	for _, m := range existing {
		byGame[m.GameID] = m
	}

	order := make(map[string]int, len(gameIDs))
	for i, gameID := range gameIDs {
		order[gameID] = i
	}

	workers := concpool.NewWithResults[matchup.Matchup]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(s.concurrency)
	for _, gameID := range gameIDs {
		if m, ok := byGame[gameID]; ok {
			workers.Go(func(context.Context) (matchup.Matchup, error) { return m, nil })
			continue
		}
		workers.Go(func(ctx context.Context) (matchup.Matchup, error) {
			return s.importGame(ctx, item, gameID, input.Week)
		})
	}

	out, err := workers.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return order[out[i].GameID] < order[out[j].GameID]
	})

	s.logger.InfoContext(ctx, "matchups imported", "pool_id", item.ID, "count", len(out))
	s.invalidate(ctx, item.ID)
	return out, nil
}

func (s *MatchupService) importGame(ctx context.Context, item pool.Pool, gameID string, week int) (matchup.Matchup, error) {
	game, err := resilience.Run(ctx, s.retrier, "fetch game "+gameID, func(ctx context.Context) (ScheduledGame, error) {
		game, err := s.schedule.FetchGame(ctx, gameID)
		if errors.Is(err, ErrNotFound) {
			return ScheduledGame{}, resilience.Permanent(err)
		}
		return game, err
	})
	if err != nil {
		return matchup.Matchup{}, fmt.Errorf("fetch game %s: %w", gameID, err)
	}

	matchupID, err := s.idGen.NewID()
	if err != nil {
		return matchup.Matchup{}, fmt.Errorf("generate matchup id: %w", err)
	}
	if week == 0 {
		week = game.Week
	}

	m := matchup.Matchup{
		ID:        matchupID,
		PoolID:    item.ID,
		GameID:    game.GameID,
		HomeTeam:  game.HomeTeam,
		AwayTeam:  game.AwayTeam,
		StartTime: game.StartTime.UTC(),
		Status:    matchup.StatusPending,
		Scores:    map[matchup.Period]matchup.Score{},
		Favorite:  game.Favorite,
		Picks:     map[string]matchup.Side{},
		Week:      week,
		UpdatedAt: s.now().UTC(),
	}
	if m.GameID == "" {
		m.GameID = gameID
	}
	if err := m.Validate(); err != nil {
		return matchup.Matchup{}, fmt.Errorf("%w: game %s: %v", ErrInvalidInput, gameID, err)
	}

	if err := s.retrier.Do(ctx, "create matchup", func(ctx context.Context) error {
		return s.matchupRepo.Create(ctx, m)
	}); err != nil {
		return matchup.Matchup{}, fmt.Errorf("create matchup: %w", err)
	}
	return m, nil
}

// RecordScore stores the cumulative score at the end of a period. Completed is only accepted
// together with the final period.
func (s *MatchupService) RecordScore(ctx context.Context, input RecordScoreInput) (matchup.Matchup, error) {
	ctx, span := startSpan(ctx, "MatchupService.RecordScore")
	defer span.End()

	if _, err := matchup.ParsePeriod(string(input.Period)); err != nil {
		return matchup.Matchup{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := input.Score.Validate(); err != nil {
		return matchup.Matchup{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.Completed && input.Period != matchup.PeriodFinal {
		return matchup.Matchup{}, fmt.Errorf("%w: only the final period completes a matchup", ErrInvalidInput)
	}

	m, err := s.getMatchup(ctx, input.MatchupID)
	if err != nil {
		return matchup.Matchup{}, err
	}
	item, err := s.administeredPool(ctx, m.PoolID, input.Actor)
	if err != nil {
		return matchup.Matchup{}, err
	}
	if item.Status == pool.StatusCompleted {
		return matchup.Matchup{}, fmt.Errorf("%w: pool %s is completed", pool.ErrInvalidTransition, item.ID)
	}

	if m.Scores == nil {
		m.Scores = make(map[matchup.Period]matchup.Score, len(matchup.Periods))
	}
	m.Scores[input.Period] = input.Score
	if input.Completed {
		m.Status = matchup.StatusCompleted
	}
	m.UpdatedAt = s.now().UTC()

	if err := s.retrier.Do(ctx, "record matchup score", func(ctx context.Context) error {
		return s.matchupRepo.Update(ctx, m)
	}); err != nil {
		return matchup.Matchup{}, fmt.Errorf("record matchup score: %w", err)
	}

	s.invalidate(ctx, m.PoolID)
	return m, nil
}

// SubmitPick records the actor's side for a pick'em matchup. Picks are closed once the matchup
// is completed.
func (s *MatchupService) SubmitPick(ctx context.Context, input SubmitPickInput) (matchup.Matchup, error) {
	ctx, span := startSpan(ctx, "MatchupService.SubmitPick")
	defer span.End()

	input.Actor.UserID = strings.TrimSpace(input.Actor.UserID)
	if input.Actor.Anonymous() {
		return matchup.Matchup{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	side, err := matchup.ParseSide(string(input.Side))
	if err != nil {
		return matchup.Matchup{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var out matchup.Matchup
	err = s.retrier.Do(ctx, "submit pick", func(ctx context.Context) error {
		m, exists, err := s.matchupRepo.GetByID(ctx, strings.TrimSpace(input.MatchupID))
		if err != nil {
			return err
		}
		if !exists {
			return resilience.Permanent(fmt.Errorf("%w: matchup=%s", ErrNotFound, input.MatchupID))
		}
		if m.Completed() {
			return resilience.Permanent(fmt.Errorf("%w: matchup=%s", ErrMatchupCompleted, m.ID))
		}

		item, exists, err := s.poolRepo.GetByID(ctx, m.PoolID)
		if err != nil {
			return err
		}
		if !exists {
			return resilience.Permanent(fmt.Errorf("%w: pool=%s", ErrNotFound, m.PoolID))
		}
		if item.Format != pool.FormatPickem {
			return resilience.Permanent(fmt.Errorf("%w: picks are only accepted by pickem pools", ErrInvalidInput))
		}
		if item.Status == pool.StatusCompleted {
			return resilience.Permanent(fmt.Errorf("%w: pool=%s status=%s", ErrPoolNotOpen, item.ID, item.Status))
		}

		if err := s.matchupRepo.SavePick(ctx, m.ID, input.Actor.UserID, side); err != nil {
			return err
		}
		if m.Picks == nil {
			m.Picks = make(map[string]matchup.Side)
		}
		m.Picks[input.Actor.UserID] = side
		out = m
		return nil
	})
	if err != nil {
		return matchup.Matchup{}, err
	}

	s.invalidate(ctx, out.PoolID)
	return out, nil
}

func (s *MatchupService) ListByPool(ctx context.Context, poolID string) ([]matchup.Matchup, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return nil, fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}
	return s.listByPool(ctx, poolID)
}

func (s *MatchupService) listByPool(ctx context.Context, poolID string) ([]matchup.Matchup, error) {
	var out []matchup.Matchup
	if err := s.retrier.Do(ctx, "list matchups", func(ctx context.Context) error {
		items, err := s.matchupRepo.ListByPool(ctx, poolID)
		if err != nil {
			return err
		}
		out = items
		return nil
	}); err != nil {
		return nil, fmt.Errorf("list matchups: %w", err)
	}
	return out, nil
}

func (s *MatchupService) getMatchup(ctx context.Context, matchupID string) (matchup.Matchup, error) {
	matchupID = strings.TrimSpace(matchupID)
	if matchupID == "" {
		return matchup.Matchup{}, fmt.Errorf("%w: matchup id is required", ErrInvalidInput)
	}

	m, exists, err := lookup(ctx, s.retrier, "get matchup", func(ctx context.Context) (matchup.Matchup, bool, error) {
		return s.matchupRepo.GetByID(ctx, matchupID)
	})
	if err != nil {
		return matchup.Matchup{}, fmt.Errorf("get matchup: %w", err)
	}
	if !exists {
		return matchup.Matchup{}, fmt.Errorf("%w: matchup=%s", ErrNotFound, matchupID)
	}
	return m, nil
}

func (s *MatchupService) administeredPool(ctx context.Context, poolID string, actor user.Principal) (pool.Pool, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return pool.Pool{}, fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}

	item, exists, err := lookup(ctx, s.retrier, "get pool", func(ctx context.Context) (pool.Pool, bool, error) {
		return s.poolRepo.GetByID(ctx, poolID)
	})
	if err != nil {
		return pool.Pool{}, fmt.Errorf("get pool: %w", err)
	}
	if !exists {
		return pool.Pool{}, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}
	if !actor.CanAdminister(item.CommissionerID) {
		return pool.Pool{}, fmt.Errorf("%w: only the commissioner can manage matchups of pool %s", ErrUnauthorized, item.ID)
	}
	return item, nil
}

func (s *MatchupService) invalidate(ctx context.Context, poolID string) {
	if s.scoreboards != nil {
		s.scoreboards.Invalidate(ctx, poolID)
	}
}

func normalizeIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		v := strings.TrimSpace(raw)
		if v == "" {
			return nil, fmt.Errorf("%w: empty id in list", ErrInvalidInput)
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}
