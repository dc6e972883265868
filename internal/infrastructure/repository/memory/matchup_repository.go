package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
)

type MatchupRepository struct {
	mu    sync.RWMutex
	items map[string]matchup.Matchup
}

func NewMatchupRepository() *MatchupRepository {
	return &MatchupRepository{items: make(map[string]matchup.Matchup)}
}

func (r *MatchupRepository) Create(_ context.Context, m matchup.Matchup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[m.ID] = cloneMatchup(m)
	return nil
}

func (r *MatchupRepository) GetByID(_ context.Context, matchupID string) (matchup.Matchup, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[matchupID]
	if !ok {
		return matchup.Matchup{}, false, nil
	}
	return cloneMatchup(m), true, nil
}

func (r *MatchupRepository) ListByPool(_ context.Context, poolID string) ([]matchup.Matchup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]matchup.Matchup, 0)
	for _, m := range r.items {
		if m.PoolID == poolID {
			out = append(out, cloneMatchup(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update replaces everything except picks, which are owned by SavePick.
func (r *MatchupRepository) Update(_ context.Context, m matchup.Matchup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[m.ID]
	if !ok {
		return fmt.Errorf("matchup %s does not exist", m.ID)
	}
	next := cloneMatchup(m)
	next.Picks = current.Picks
	r.items[m.ID] = next
	return nil
}

func (r *MatchupRepository) SavePick(_ context.Context, matchupID, userID string, side matchup.Side) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchupID]
	if !ok {
		return fmt.Errorf("matchup %s does not exist", matchupID)
	}
	picks := maps.Clone(m.Picks)
	if picks == nil {
		picks = make(map[string]matchup.Side)
	}
	picks[userID] = side
	m.Picks = picks
	r.items[matchupID] = m
	return nil
}

func cloneMatchup(m matchup.Matchup) matchup.Matchup {
	m.Scores = maps.Clone(m.Scores)
	m.Picks = maps.Clone(m.Picks)
	return m
}
