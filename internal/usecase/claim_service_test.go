package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/user"
	"github.com/riskibarqy/office-pools/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/office-pools/internal/platform/telemetry"
)

func createSquaresPool(t *testing.T, env *testEnv) pool.Pool {
	t.Helper()

	item, err := env.poolSvc.CreatePool(context.Background(), CreatePoolInput{
		Name:   "Office Big Game",
		Format: pool.FormatSquares,
		Pot:    pool.Pot{Amount: 100},
		Payout: &pool.PayoutStructure{Q1: 0.2, Q2: 0.2, Q3: 0.2, Final: 0.4},
		Actor:  commissioner,
	})
	if err != nil {
		t.Fatalf("create squares pool: %v", err)
	}
	return item
}

func slotStores() map[string]func() claim.Repository {
	return map[string]func() claim.Repository{
		"conditional": func() claim.Repository { return memory.NewSlotRepository() },
		"optimistic":  func() claim.Repository { return memory.NewOptimisticSlotRepository() },
	}
}

func TestClaimService_ConcurrentClaimsLeaveSingleOwner(t *testing.T) {
	for name, newStore := range slotStores() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(newStore())
			item := createSquaresPool(t, env)
			ref := claim.GridCell(1, 4)

			const claimants = 8
			var (
				mu        sync.Mutex
				winners   []string
				conflicts atomic.Int32
			)
			var wg conc.WaitGroup
			for i := 0; i < claimants; i++ {
				actor := user.Principal{UserID: fmt.Sprintf("user-%d", i)}
				wg.Go(func() {
					_, err := env.claimSvc.Claim(context.Background(), SlotInput{PoolID: item.ID, Ref: ref, Actor: actor})
					switch {
					case err == nil:
						mu.Lock()
						winners = append(winners, actor.UserID)
						mu.Unlock()
					case errors.Is(err, ErrAlreadyClaimed):
						conflicts.Add(1)
					default:
						t.Errorf("unexpected claim error: %v", err)
					}
				})
			}
			wg.Wait()

			slots, err := env.claimSvc.ListSlots(context.Background(), item.ID)
			if err != nil {
				t.Fatalf("list slots: %v", err)
			}
			owners := 0
			var finalOwner string
			for _, s := range slots {
				if s.Claimed() {
					owners++
					finalOwner = s.OwnerID
				}
			}
			if owners != 1 {
				t.Fatalf("expected exactly one claimed slot, got %d", owners)
			}
			if len(winners) == 0 {
				t.Fatalf("expected at least one successful claim")
			}
			if !containsString(winners, finalOwner) {
				t.Fatalf("final owner %s did not observe success (winners=%v)", finalOwner, winners)
			}
			if int(conflicts.Load())+len(winners) != claimants {
				t.Fatalf("every claimant must either win or see AlreadyClaimed")
			}
			if name == "conditional" && len(winners) != 1 {
				t.Fatalf("conditional store must admit exactly one winner, got %v", winners)
			}
		})
	}
}

// interleavedSlots lets two claimants read the slot as available before either writes, then
// serializes each write with its confirming re-read.
type interleavedSlots struct {
	claim.Repository

	arrived  sync.WaitGroup
	preReads atomic.Int32
	turn     sync.Mutex
	holding  atomic.Bool
}

func newInterleavedSlots(inner claim.Repository) *interleavedSlots {
	r := &interleavedSlots{Repository: inner}
	r.arrived.Add(2)
	return r
}

func (r *interleavedSlots) GetSlot(ctx context.Context, poolID string, ref claim.Ref) (claim.Slot, bool, error) {
	if r.preReads.Add(1) <= 2 {
		s, ok, err := r.Repository.GetSlot(ctx, poolID, ref)
		r.arrived.Done()
		r.arrived.Wait()
		return s, ok, err
	}

	s, ok, err := r.Repository.GetSlot(ctx, poolID, ref)
	if r.holding.CompareAndSwap(true, false) {
		r.turn.Unlock()
	}
	return s, ok, err
}

func (r *interleavedSlots) SaveSlot(ctx context.Context, slot claim.Slot, expectedOwner string) (bool, error) {
	r.turn.Lock()
	written, err := r.Repository.SaveSlot(ctx, slot, expectedOwner)
	if !written || err != nil {
		r.turn.Unlock()
		return written, err
	}
	r.holding.Store(true)
	return written, err
}

func claimRace(t *testing.T, inner claim.Repository) (errA, errB error, finalOwner string) {
	t.Helper()

	seed := newTestEnv(inner)
	item := createSquaresPool(t, seed)

	racing := newInterleavedSlots(inner)
	svc := NewClaimService(seed.pools, racing, fastRetrier())
	ref := claim.GridCell(1, 4)

	var wg conc.WaitGroup
	wg.Go(func() {
		_, errA = svc.Claim(context.Background(), SlotInput{PoolID: item.ID, Ref: ref, Actor: userA})
	})
	wg.Go(func() {
		_, errB = svc.Claim(context.Background(), SlotInput{PoolID: item.ID, Ref: ref, Actor: userB})
	})
	wg.Wait()

	slot, _, err := inner.GetSlot(context.Background(), item.ID, ref)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	return errA, errB, slot.OwnerID
}

// Without a conditional write both claimants can pass their post-write re-read: the first one
// to confirm succeeds and is then overwritten. This is the documented last-writer-wins hazard.
func TestClaimService_OptimisticStoreLastWriterWinsHazard(t *testing.T) {
	errA, errB, owner := claimRace(t, memory.NewOptimisticSlotRepository())

	if errA != nil || errB != nil {
		t.Fatalf("expected both claimants to observe success on the optimistic store: errA=%v errB=%v", errA, errB)
	}
	if owner != userA.UserID && owner != userB.UserID {
		t.Fatalf("unexpected final owner %q", owner)
	}
}

func TestClaimService_ConditionalStoreClosesRace(t *testing.T) {
	errA, errB, owner := claimRace(t, memory.NewSlotRepository())

	if (errA == nil) == (errB == nil) {
		t.Fatalf("expected exactly one winner: errA=%v errB=%v", errA, errB)
	}
	loser := errA
	winner := userB.UserID
	if errA == nil {
		loser = errB
		winner = userA.UserID
	}
	if !errors.Is(loser, ErrAlreadyClaimed) {
		t.Fatalf("loser must see ErrAlreadyClaimed, got %v", loser)
	}
	if owner != winner {
		t.Fatalf("unexpected owner: got=%s want=%s", owner, winner)
	}
}

func TestClaimService_ClaimIsIdempotentForOwner(t *testing.T) {
	env := newTestEnv(nil)
	item := createSquaresPool(t, env)
	input := SlotInput{PoolID: item.ID, Ref: claim.GridCell(0, 0), Actor: userA}

	first, err := env.claimSvc.Claim(context.Background(), input)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	second, err := env.claimSvc.Claim(context.Background(), input)
	if err != nil {
		t.Fatalf("self claim must be a no-op success: %v", err)
	}
	if !second.ClaimedAt.Equal(*first.ClaimedAt) {
		t.Fatalf("self claim must not rewrite the slot")
	}

	_, err = env.claimSvc.Claim(context.Background(), SlotInput{PoolID: item.ID, Ref: input.Ref, Actor: userB})
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestClaimService_Release(t *testing.T) {
	env := newTestEnv(nil)
	item := createSquaresPool(t, env)
	ctx := context.Background()
	ref := claim.GridCell(3, 3)

	_, err := env.claimSvc.Release(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: userA})
	if !errors.Is(err, ErrNotClaimed) {
		t.Fatalf("expected ErrNotClaimed, got %v", err)
	}

	if _, err := env.claimSvc.Claim(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: userA}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	_, err = env.claimSvc.Release(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: userB})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	released, err := env.claimSvc.Release(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: commissioner})
	if err != nil {
		t.Fatalf("commissioner override: %v", err)
	}
	if released.Claimed() || released.OwnerID != "" || released.ClaimedAt != nil {
		t.Fatalf("unexpected released slot: %+v", released)
	}

	if _, err := env.claimSvc.Claim(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: userB}); err != nil {
		t.Fatalf("released slot must be claimable again: %v", err)
	}
	if _, err := env.claimSvc.Release(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: userB}); err != nil {
		t.Fatalf("owner release: %v", err)
	}
}

func TestClaimService_RejectsMutationsOnceLocked(t *testing.T) {
	env := newTestEnv(nil)
	item := createSquaresPool(t, env)
	ctx := context.Background()
	ref := claim.GridCell(2, 2)

	if _, err := env.claimSvc.Claim(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: userA}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := env.poolSvc.Lock(ctx, item.ID, commissioner); err != nil {
		t.Fatalf("lock: %v", err)
	}

	_, err := env.claimSvc.Claim(ctx, SlotInput{PoolID: item.ID, Ref: claim.GridCell(5, 5), Actor: userB})
	if !errors.Is(err, ErrPoolNotOpen) {
		t.Fatalf("expected ErrPoolNotOpen on claim, got %v", err)
	}
	_, err = env.claimSvc.Release(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: userA})
	if !errors.Is(err, ErrPoolNotOpen) {
		t.Fatalf("expected ErrPoolNotOpen on release, got %v", err)
	}
}

func TestClaimService_ValidatesSlotAgainstPool(t *testing.T) {
	env := newTestEnv(nil)
	item := createSquaresPool(t, env)
	ctx := context.Background()

	cases := []SlotInput{
		{PoolID: item.ID, Ref: claim.StripSlot(1), Actor: userA},
		{PoolID: item.ID, Ref: claim.GridCell(10, 1), Actor: userA},
		{PoolID: item.ID, Ref: claim.GridCell(1, 1)},
		{PoolID: "", Ref: claim.GridCell(1, 1), Actor: userA},
	}
	for _, input := range cases {
		if _, err := env.claimSvc.Claim(ctx, input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", input, err)
		}
	}

	_, err := env.claimSvc.Claim(ctx, SlotInput{PoolID: "missing", Ref: claim.GridCell(1, 1), Actor: userA})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// stealingSlots fails the first write and lets another user take the slot in between, so the
// retry must see the new owner instead of writing over it.
type stealingSlots struct {
	claim.Repository
	thief string
	once  sync.Once
}

func (r *stealingSlots) SaveSlot(ctx context.Context, slot claim.Slot, expectedOwner string) (bool, error) {
	var stolen bool
	r.once.Do(func() {
		_, _ = r.Repository.SaveSlot(ctx, slot.Released().ClaimedBy(r.thief, *slot.ClaimedAt), "")
		stolen = true
	})
	if stolen {
		return false, errors.New("store unavailable")
	}
	return r.Repository.SaveSlot(ctx, slot, expectedOwner)
}

func TestClaimService_RetryRevalidatesBeforeWriting(t *testing.T) {
	inner := memory.NewOptimisticSlotRepository()
	env := newTestEnv(inner)
	item := createSquaresPool(t, env)

	svc := NewClaimService(env.pools, &stealingSlots{Repository: inner, thief: userB.UserID}, fastRetrier())
	_, err := svc.Claim(context.Background(), SlotInput{PoolID: item.ID, Ref: claim.GridCell(7, 7), Actor: userA})
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed after the retry re-read, got %v", err)
	}

	slot, _, _ := inner.GetSlot(context.Background(), item.ID, claim.GridCell(7, 7))
	if slot.OwnerID != userB.UserID {
		t.Fatalf("retry must not overwrite the concurrent owner, got %q", slot.OwnerID)
	}
}

// lostAckSlots persists the first write but reports a failure, as when a response is lost.
type lostAckSlots struct {
	claim.Repository
	failed atomic.Bool
}

func (r *lostAckSlots) SaveSlot(ctx context.Context, slot claim.Slot, expectedOwner string) (bool, error) {
	written, err := r.Repository.SaveSlot(ctx, slot, expectedOwner)
	if err == nil && written && r.failed.CompareAndSwap(false, true) {
		return false, errors.New("connection reset")
	}
	return written, err
}

func TestClaimService_RetryAfterLostAckSucceeds(t *testing.T) {
	inner := memory.NewSlotRepository()
	env := newTestEnv(inner)
	item := createSquaresPool(t, env)

	sink := &recordingSink{}
	svc := NewClaimService(env.pools, &lostAckSlots{Repository: inner}, fastRetrier())
	svc.SetTelemetry(sink)
	got, err := svc.Claim(context.Background(), SlotInput{PoolID: item.ID, Ref: claim.GridCell(4, 1), Actor: userA})
	if err != nil {
		t.Fatalf("claim after lost ack: %v", err)
	}
	if got.OwnerID != userA.UserID {
		t.Fatalf("unexpected owner: %q", got.OwnerID)
	}
	if names := sink.names(); len(names) != 1 || names[0] != telemetry.EventSlotClaimed {
		t.Fatalf("claim landed by the lost write must still be announced: %v", names)
	}
}

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate(context.Context, string) {
	c.calls.Add(1)
}

// flakyConfirmSlots fails the first read that follows a successful write.
type flakyConfirmSlots struct {
	claim.Repository
	wrote  atomic.Bool
	failed atomic.Bool
}

func (r *flakyConfirmSlots) SaveSlot(ctx context.Context, slot claim.Slot, expectedOwner string) (bool, error) {
	written, err := r.Repository.SaveSlot(ctx, slot, expectedOwner)
	if err == nil && written {
		r.wrote.Store(true)
	}
	return written, err
}

func (r *flakyConfirmSlots) GetSlot(ctx context.Context, poolID string, ref claim.Ref) (claim.Slot, bool, error) {
	if r.wrote.Load() && r.failed.CompareAndSwap(false, true) {
		return claim.Slot{}, false, errors.New("read timeout")
	}
	return r.Repository.GetSlot(ctx, poolID, ref)
}

func TestClaimService_ClaimAnnouncedWhenConfirmReadFails(t *testing.T) {
	inner := memory.NewSlotRepository()
	env := newTestEnv(inner)
	item := createSquaresPool(t, env)
	ctx := context.Background()
	ref := claim.GridCell(8, 3)

	sink := &recordingSink{}
	svc := NewClaimService(env.pools, &flakyConfirmSlots{Repository: inner}, fastRetrier())
	svc.SetTelemetry(sink)
	boards := &countingInvalidator{}
	svc.SetScoreboardInvalidator(boards)

	got, err := svc.Claim(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: userA})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got.OwnerID != userA.UserID {
		t.Fatalf("unexpected owner: %q", got.OwnerID)
	}
	if names := sink.names(); len(names) != 1 || names[0] != telemetry.EventSlotClaimed {
		t.Fatalf("expected one claim event, got %v", names)
	}
	if n := boards.calls.Load(); n != 1 {
		t.Fatalf("expected one scoreboard invalidation, got %d", n)
	}
}

func TestClaimService_ReleaseRejectsOtherPoolCommissioner(t *testing.T) {
	env := newTestEnv(nil)
	item := createSquaresPool(t, env)
	ctx := context.Background()
	ref := claim.GridCell(5, 0)

	if _, err := env.claimSvc.Claim(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: userA}); err != nil {
		t.Fatalf("claim: %v", err)
	}

	outsider := user.Principal{UserID: "other-pool-commish", IsCommissioner: true}
	_, err := env.claimSvc.Release(ctx, SlotInput{PoolID: item.ID, Ref: ref, Actor: outsider})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("commissioner of another pool must not release, got %v", err)
	}

	slot, _, _ := env.slots.GetSlot(ctx, item.ID, ref)
	if slot.OwnerID != userA.UserID {
		t.Fatalf("slot changed hands: %q", slot.OwnerID)
	}
}

// failingSlotCreates rejects CreateSlots while down is set.
type failingSlotCreates struct {
	claim.Repository
	down atomic.Bool
}

func (r *failingSlotCreates) CreateSlots(ctx context.Context, slots []claim.Slot) error {
	if r.down.Load() {
		return errors.New("pool_slots unavailable")
	}
	return r.Repository.CreateSlots(ctx, slots)
}

func TestClaimService_RecreatesSlotsMissingAfterCreate(t *testing.T) {
	store := &failingSlotCreates{Repository: memory.NewSlotRepository()}
	env := newTestEnv(store)
	ctx := context.Background()

	store.down.Store(true)
	claimed := createSquaresPool(t, env)
	listed := createSquaresPool(t, env)
	locked := createSquaresPool(t, env)
	store.down.Store(false)

	if slots, _ := store.ListByPool(ctx, claimed.ID); len(slots) != 0 {
		t.Fatalf("expected no slots after the failed insert, got %d", len(slots))
	}

	got, err := env.claimSvc.Claim(ctx, SlotInput{PoolID: claimed.ID, Ref: claim.GridCell(6, 2), Actor: userA})
	if err != nil {
		t.Fatalf("claim on a pool without slots: %v", err)
	}
	if got.OwnerID != userA.UserID {
		t.Fatalf("unexpected owner: %q", got.OwnerID)
	}

	slots, err := env.claimSvc.ListSlots(ctx, listed.ID)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(slots) != 100 {
		t.Fatalf("expected 100 recreated slots, got %d", len(slots))
	}

	if _, err := env.poolSvc.Lock(ctx, locked.ID, commissioner); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if slots, _ := store.ListByPool(ctx, locked.ID); len(slots) != 100 {
		t.Fatalf("lock must leave the grid in place, got %d slots", len(slots))
	}

	slots, err = env.claimSvc.ListSlots(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(slots) != 100 {
		t.Fatalf("expected the whole grid after repair, got %d", len(slots))
	}
	for _, slot := range slots {
		if slot.Ref == claim.GridCell(6, 2) && slot.OwnerID != userA.UserID {
			t.Fatalf("repair must keep existing claims: %+v", slot)
		}
	}
}

func containsString(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
