package claim

import "context"

// Repository describes slot persistence needs from use cases.
//
// SaveSlot writes slot when the stored owner equals expectedOwner ("" means available) and
// returns false when it does not. Stores without conditional writes may ignore expectedOwner
// and always return true; callers re-read to confirm.
type Repository interface {
	CreateSlots(ctx context.Context, slots []Slot) error
	GetSlot(ctx context.Context, poolID string, ref Ref) (Slot, bool, error)
	ListByPool(ctx context.Context, poolID string) ([]Slot, error)
	SaveSlot(ctx context.Context, slot Slot, expectedOwner string) (bool, error)
}
