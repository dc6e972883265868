package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/office-pools/internal/domain/pool"
)

func TestPoolRepository_UpdateIsConditionalOnVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewPoolRepository(pool.Pool{ID: "pool-1", InviteCode: "ABC123", Status: pool.StatusOpen, Version: 1})

	locked := pool.Pool{ID: "pool-1", InviteCode: "ABC123", Status: pool.StatusLocked, Version: 2}
	ok, err := repo.Update(ctx, locked, 1)
	if err != nil || !ok {
		t.Fatalf("write at the stored version must succeed: ok=%v err=%v", ok, err)
	}

	stale := pool.Pool{ID: "pool-1", InviteCode: "ABC123", Status: pool.StatusOpen, Version: 2}
	ok, err = repo.Update(ctx, stale, 1)
	if err != nil || ok {
		t.Fatalf("write at a stale version must be rejected: ok=%v err=%v", ok, err)
	}

	got, _, _ := repo.GetByID(ctx, "pool-1")
	if got.Status != pool.StatusLocked || got.Version != 2 {
		t.Fatalf("stale write leaked into the store: %+v", got)
	}

	if _, err := repo.Update(ctx, pool.Pool{ID: "missing"}, 0); err == nil {
		t.Fatalf("expected an error for a missing pool")
	}
}

func TestPoolRepository_CreateRejectsTakenInviteCode(t *testing.T) {
	ctx := context.Background()
	repo := NewPoolRepository(pool.Pool{ID: "pool-1", InviteCode: "ABC123"})

	err := repo.Create(ctx, pool.Pool{ID: "pool-2", InviteCode: "ABC123"})
	if !errors.Is(err, pool.ErrInviteCodeTaken) {
		t.Fatalf("expected ErrInviteCodeTaken, got %v", err)
	}
	if _, exists, _ := repo.GetByID(ctx, "pool-2"); exists {
		t.Fatalf("rejected pool must not be stored")
	}
}
