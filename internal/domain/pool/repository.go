package pool

import (
	"context"
	"errors"
)

// ErrInviteCodeTaken is returned by Create when another pool already holds the invite code.
var ErrInviteCodeTaken = errors.New("invite code already in use")

// Repository describes pool persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, p Pool) error
	GetByID(ctx context.Context, poolID string) (Pool, bool, error)
	GetByInviteCode(ctx context.Context, code string) (Pool, bool, error)
	InviteCodeExists(ctx context.Context, code string) (bool, error)
	// Update stores p only if the persisted version still equals expectedVersion and reports
	// whether it did.
	Update(ctx context.Context, p Pool, expectedVersion int64) (bool, error)
	ListByStatus(ctx context.Context, status Status) ([]Pool, error)
}
