package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/riskibarqy/office-pools/internal/domain/pool"
)

type PoolRepository struct {
	mu     sync.RWMutex
	items  map[string]pool.Pool
	codes  map[string]string
	orders []string
}

func NewPoolRepository(pools ...pool.Pool) *PoolRepository {
	r := &PoolRepository{
		items: make(map[string]pool.Pool, len(pools)),
		codes: make(map[string]string, len(pools)),
	}
	for _, p := range pools {
		r.put(p)
	}
	return r
}

func (r *PoolRepository) put(p pool.Pool) {
	if _, exists := r.items[p.ID]; !exists {
		r.orders = append(r.orders, p.ID)
	}
	r.items[p.ID] = clonePool(p)
	if p.InviteCode != "" {
		r.codes[p.InviteCode] = p.ID
	}
}

func (r *PoolRepository) Create(_ context.Context, p pool.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.codes[p.InviteCode]; taken && owner != p.ID {
		return fmt.Errorf("code=%s: %w", p.InviteCode, pool.ErrInviteCodeTaken)
	}
	r.put(p)
	return nil
}

func (r *PoolRepository) GetByID(_ context.Context, poolID string) (pool.Pool, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[poolID]
	if !ok {
		return pool.Pool{}, false, nil
	}
	return clonePool(p), true, nil
}

func (r *PoolRepository) GetByInviteCode(ctx context.Context, code string) (pool.Pool, bool, error) {
	r.mu.RLock()
	poolID, ok := r.codes[code]
	r.mu.RUnlock()
	if !ok {
		return pool.Pool{}, false, nil
	}
	return r.GetByID(ctx, poolID)
}

func (r *PoolRepository) InviteCodeExists(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.codes[code]
	return ok, nil
}

func (r *PoolRepository) Update(_ context.Context, p pool.Pool, expectedVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[p.ID]
	if !ok {
		return false, fmt.Errorf("pool %s does not exist", p.ID)
	}
	if current.Version != expectedVersion {
		return false, nil
	}
	r.put(p)
	return true, nil
}

func (r *PoolRepository) ListByStatus(_ context.Context, status pool.Status) ([]pool.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pool.Pool, 0, len(r.orders))
	for _, poolID := range r.orders {
		if p := r.items[poolID]; p.Status == status {
			out = append(out, clonePool(p))
		}
	}
	return out, nil
}

func clonePool(p pool.Pool) pool.Pool {
	if p.Axis != nil {
		axis := *p.Axis
		p.Axis = &axis
	}
	p.StripNumbers = slices.Clone(p.StripNumbers)
	return p
}
