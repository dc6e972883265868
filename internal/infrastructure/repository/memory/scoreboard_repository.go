package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/office-pools/internal/domain/scoreboard"
)

type scoreboardKey struct {
	poolID string
	week   int
}

type ScoreboardRepository struct {
	mu    sync.RWMutex
	items map[scoreboardKey]scoreboard.Snapshot
}

func NewScoreboardRepository() *ScoreboardRepository {
	return &ScoreboardRepository{items: make(map[scoreboardKey]scoreboard.Snapshot)}
}

func (r *ScoreboardRepository) Save(_ context.Context, snapshot scoreboard.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[scoreboardKey{poolID: snapshot.PoolID, week: snapshot.Week}] = snapshot
	return nil
}

func (r *ScoreboardRepository) Get(_ context.Context, poolID string, week int) (scoreboard.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[scoreboardKey{poolID: poolID, week: week}]
	return s, ok, nil
}
