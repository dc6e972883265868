package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/domain/payout"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/scoreboard"
	"github.com/riskibarqy/office-pools/internal/domain/scoring"
	"github.com/riskibarqy/office-pools/internal/platform/cache"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/platform/resilience"
)

const scoreboardCachePrefix = "scoreboard:"

// ScoreboardService recomputes scoreboards from persisted facts and writes the snapshot back.
type ScoreboardService struct {
	poolRepo       pool.Repository
	slotRepo       claim.Repository
	matchupRepo    matchup.Repository
	scoreboardRepo scoreboard.Repository
	cache          *cache.Store[scoreboard.Snapshot]
	retrier        *resilience.Retrier
	logger         *logging.Logger
	now            func() time.Time
}

func NewScoreboardService(
	poolRepo pool.Repository,
	slotRepo claim.Repository,
	matchupRepo matchup.Repository,
	scoreboardRepo scoreboard.Repository,
	snapshots *cache.Store[scoreboard.Snapshot],
	retrier *resilience.Retrier,
) *ScoreboardService {
	if snapshots == nil {
		snapshots = cache.NewStore[scoreboard.Snapshot](time.Minute)
	}
	return &ScoreboardService{
		poolRepo:       poolRepo,
		slotRepo:       slotRepo,
		matchupRepo:    matchupRepo,
		scoreboardRepo: scoreboardRepo,
		cache:          snapshots,
		retrier:        defaultRetrier(retrier),
		logger:         logging.Default(),
		now:            time.Now,
	}
}

func (s *ScoreboardService) SetLogger(logger *logging.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func scoreboardKey(poolID string, week int) string {
	return scoreboardCachePrefix + poolID + ":" + strconv.Itoa(week)
}

// Invalidate drops every cached week of poolID.
func (s *ScoreboardService) Invalidate(ctx context.Context, poolID string) {
	s.cache.DeletePrefix(ctx, scoreboardCachePrefix+poolID+":")
}

// Compute returns the scoreboard of poolID. week selects a pick'em week; 0 means overall and is
// the only value squares and strip pools accept.
func (s *ScoreboardService) Compute(ctx context.Context, poolID string, week int) (scoreboard.Snapshot, error) {
	ctx, span := startSpan(ctx, "ScoreboardService.Compute")
	defer span.End()

	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return scoreboard.Snapshot{}, fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}
	if week < 0 {
		return scoreboard.Snapshot{}, fmt.Errorf("%w: week must be non-negative", ErrInvalidInput)
	}

	return s.cache.GetOrLoad(ctx, scoreboardKey(poolID, week), func(ctx context.Context) (scoreboard.Snapshot, error) {
		return s.compute(ctx, poolID, week)
	})
}

// Recompute bypasses the cache.
func (s *ScoreboardService) Recompute(ctx context.Context, poolID string, week int) (scoreboard.Snapshot, error) {
	s.Invalidate(ctx, poolID)
	return s.Compute(ctx, poolID, week)
}

func (s *ScoreboardService) compute(ctx context.Context, poolID string, week int) (scoreboard.Snapshot, error) {
	item, exists, err := lookup(ctx, s.retrier, "get pool", func(ctx context.Context) (pool.Pool, bool, error) {
		return s.poolRepo.GetByID(ctx, poolID)
	})
	if err != nil {
		return scoreboard.Snapshot{}, fmt.Errorf("get pool: %w", err)
	}
	if !exists {
		return scoreboard.Snapshot{}, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}
	if week != scoreboard.OverallWeek && item.Format != pool.FormatPickem {
		return scoreboard.Snapshot{}, fmt.Errorf("%w: weekly scoreboards are pickem only", ErrInvalidInput)
	}

	snapshot := scoreboard.Snapshot{
		PoolID:     item.ID,
		Format:     item.Format,
		Week:       week,
		ComputedAt: s.now().UTC(),
	}

	switch item.Format {
	case pool.FormatSquares:
		matchups, err := s.listMatchups(ctx, item.ID)
		if err != nil {
			return scoreboard.Snapshot{}, err
		}
		if len(matchups) == 0 {
			return scoreboard.Snapshot{}, fmt.Errorf("%w: pool=%s", scoring.ErrNoMatchupsFound, item.ID)
		}
		slots, err := s.listSlots(ctx, item.ID)
		if err != nil {
			return scoreboard.Snapshot{}, err
		}
		game := primaryMatchup(matchups)
		result, err := scoring.SquaresWinners(item.Axis, game.Scores, slots)
		if err != nil {
			return scoreboard.Snapshot{}, fmt.Errorf("score squares: %w", err)
		}
		snapshot.Squares = &result
		snapshot.MatchupID = game.ID

	case pool.FormatStripCards:
		slots, err := s.listSlots(ctx, item.ID)
		if err != nil {
			return scoreboard.Snapshot{}, err
		}
		snapshot.Strips = scoring.StripRankings(slots)

	case pool.FormatPickem:
		matchups, err := s.listMatchups(ctx, item.ID)
		if err != nil {
			return scoreboard.Snapshot{}, err
		}
		var result scoring.PickemResult
		if week == scoreboard.OverallWeek {
			result, err = scoring.ScorePickemOverall(matchups, item.Rules)
		} else {
			result, err = scoring.ScorePickemWeek(matchups, week, item.Rules)
		}
		if err != nil {
			return scoreboard.Snapshot{}, err
		}
		snapshot.Pickem = &result
	}

	allocation, err := payout.Allocate(item.Pot, item.Payout)
	if err != nil {
		return scoreboard.Snapshot{}, fmt.Errorf("allocate payout: %w", err)
	}
	snapshot.Payout = allocation

	if s.scoreboardRepo != nil {
		if err := s.retrier.Do(ctx, "save scoreboard", func(ctx context.Context) error {
			return s.scoreboardRepo.Save(ctx, snapshot)
		}); err != nil {
			return scoreboard.Snapshot{}, fmt.Errorf("save scoreboard: %w", err)
		}
	}

	s.logger.DebugContext(ctx, "scoreboard computed", "pool_id", item.ID, "format", item.Format, "week", week)
	return snapshot, nil
}

// primaryMatchup is the squares game: the earliest matchup of the pool.
func primaryMatchup(matchups []matchup.Matchup) matchup.Matchup {
	ordered := make([]matchup.Matchup, len(matchups))
	copy(ordered, matchups)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].StartTime.Equal(ordered[j].StartTime) {
			return ordered[i].StartTime.Before(ordered[j].StartTime)
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered[0]
}

func (s *ScoreboardService) listMatchups(ctx context.Context, poolID string) ([]matchup.Matchup, error) {
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

func (s *ScoreboardService) listSlots(ctx context.Context, poolID string) ([]claim.Slot, error) {
	var out []claim.Slot
	if err := s.retrier.Do(ctx, "list slots", func(ctx context.Context) error {
		items, err := s.slotRepo.ListByPool(ctx, poolID)
		if err != nil {
			return err
		}
		out = items
		return nil
	}); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return out, nil
}
