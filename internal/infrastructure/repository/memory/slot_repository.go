package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
)

type slotKey struct {
	poolID string
	kind   claim.Kind
	index  int
}

func keyOf(poolID string, ref claim.Ref) slotKey {
	return slotKey{poolID: poolID, kind: ref.Kind, index: ref.Index()}
}

type slotTable struct {
	mu    sync.RWMutex
	items map[slotKey]claim.Slot
}

func newSlotTable() slotTable {
	return slotTable{items: make(map[slotKey]claim.Slot)}
}

func (t *slotTable) createSlots(slots []claim.Slot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range slots {
		k := keyOf(s.PoolID, s.Ref)
		if _, exists := t.items[k]; exists {
			continue
		}
		t.items[k] = s
	}
}

func (t *slotTable) get(poolID string, ref claim.Ref) (claim.Slot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.items[keyOf(poolID, ref)]
	return cloneSlot(s), ok
}

func (t *slotTable) list(poolID string) []claim.Slot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]claim.Slot, 0)
	for k, s := range t.items {
		if k.poolID == poolID {
			out = append(out, cloneSlot(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ref.Index() < out[j].Ref.Index()
	})
	return out
}

func cloneSlot(s claim.Slot) claim.Slot {
	if s.ClaimedAt != nil {
		at := *s.ClaimedAt
		s.ClaimedAt = &at
	}
	return s
}

// SlotRepository performs conditional writes: SaveSlot only succeeds while the stored owner
// still equals the expected owner.
type SlotRepository struct {
	table slotTable
}

func NewSlotRepository() *SlotRepository {
	return &SlotRepository{table: newSlotTable()}
}

func (r *SlotRepository) CreateSlots(_ context.Context, slots []claim.Slot) error {
	r.table.createSlots(slots)
	return nil
}

func (r *SlotRepository) GetSlot(_ context.Context, poolID string, ref claim.Ref) (claim.Slot, bool, error) {
	s, ok := r.table.get(poolID, ref)
	return s, ok, nil
}

func (r *SlotRepository) ListByPool(_ context.Context, poolID string) ([]claim.Slot, error) {
	return r.table.list(poolID), nil
}

func (r *SlotRepository) SaveSlot(_ context.Context, slot claim.Slot, expectedOwner string) (bool, error) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()

	k := keyOf(slot.PoolID, slot.Ref)
	current, ok := r.table.items[k]
	if !ok || current.OwnerID != expectedOwner {
		return false, nil
	}
	r.table.items[k] = cloneSlot(slot)
	return true, nil
}

// OptimisticSlotRepository models a document store without conditional writes: SaveSlot ignores
// the expected owner and the last writer wins.
type OptimisticSlotRepository struct {
	table slotTable
}

func NewOptimisticSlotRepository() *OptimisticSlotRepository {
	return &OptimisticSlotRepository{table: newSlotTable()}
}

func (r *OptimisticSlotRepository) CreateSlots(_ context.Context, slots []claim.Slot) error {
	r.table.createSlots(slots)
	return nil
}

func (r *OptimisticSlotRepository) GetSlot(_ context.Context, poolID string, ref claim.Ref) (claim.Slot, bool, error) {
	s, ok := r.table.get(poolID, ref)
	return s, ok, nil
}

func (r *OptimisticSlotRepository) ListByPool(_ context.Context, poolID string) ([]claim.Slot, error) {
	return r.table.list(poolID), nil
}

func (r *OptimisticSlotRepository) SaveSlot(_ context.Context, slot claim.Slot, _ string) (bool, error) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()

	k := keyOf(slot.PoolID, slot.Ref)
	if _, ok := r.table.items[k]; !ok {
		return false, nil
	}
	r.table.items[k] = cloneSlot(slot)
	return true, nil
}
