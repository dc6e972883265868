package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/user"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/platform/resilience"
	"github.com/riskibarqy/office-pools/internal/platform/telemetry"
)

type SlotInput struct {
	PoolID string
	Ref    claim.Ref
	Actor  user.Principal
}

// ClaimService arbitrates ownership of grid cells and strip slots. Every attempt re-reads the
// pool and the slot before writing, so a retry never resurrects a stale claim.
type ClaimService struct {
	poolRepo    pool.Repository
	slotRepo    claim.Repository
	retrier     *resilience.Retrier
	logger      *logging.Logger
	sink        telemetry.Sink
	scoreboards scoreboardInvalidator
	now         func() time.Time
}

func NewClaimService(poolRepo pool.Repository, slotRepo claim.Repository, retrier *resilience.Retrier) *ClaimService {
	return &ClaimService{
		poolRepo: poolRepo,
		slotRepo: slotRepo,
		retrier:  defaultRetrier(retrier),
		logger:   logging.Default(),
		sink:     telemetry.Nop(),
		now:      time.Now,
	}
}

func (s *ClaimService) SetLogger(logger *logging.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *ClaimService) SetTelemetry(sink telemetry.Sink) {
	if sink != nil {
		s.sink = sink
	}
}

func (s *ClaimService) SetScoreboardInvalidator(inv scoreboardInvalidator) {
	s.scoreboards = inv
}

func (s *ClaimService) Claim(ctx context.Context, input SlotInput) (claim.Slot, error) {
	ctx, span := startSpan(ctx, "ClaimService.Claim")
	defer span.End()

	if err := validateSlotInput(&input); err != nil {
		return claim.Slot{}, err
	}

	var (
		result    claim.Slot
		claimed   bool
		attempted bool
	)
	label := "claim " + input.Ref.String()
	err := s.retrier.Do(ctx, label, func(ctx context.Context) error {
		item, err := s.openPool(ctx, input)
		if err != nil {
			return err
		}

		current, err := s.readSlot(ctx, item, input)
		if err != nil {
			return err
		}
		if current.OwnerID == input.Actor.UserID {
			// An earlier attempt of this call may have written the claim before failing.
			result = current
			claimed = attempted
			return nil
		}
		if current.Claimed() {
			return resilience.Permanent(fmt.Errorf("%w: %s", ErrAlreadyClaimed, input.Ref))
		}

		next := current.ClaimedBy(input.Actor.UserID, s.now())
		attempted = true
		written, err := s.slotRepo.SaveSlot(ctx, next, "")
		if err != nil {
			return err
		}
		if !written {
			return resilience.Permanent(fmt.Errorf("%w: %s", ErrAlreadyClaimed, input.Ref))
		}

		confirmed, err := s.readSlot(ctx, item, input)
		if err != nil {
			return err
		}
		if confirmed.OwnerID != input.Actor.UserID {
			return resilience.Permanent(fmt.Errorf("%w: %s lost to a concurrent claim", ErrAlreadyClaimed, input.Ref))
		}
		result = confirmed
		claimed = true
		return nil
	})
	if err != nil {
		return claim.Slot{}, err
	}

	if claimed {
		s.changed(ctx, telemetry.EventSlotClaimed, input)
	}
	return result, nil
}

// Release frees a slot held by the actor. The pool's commissioner may release any claimed slot.
func (s *ClaimService) Release(ctx context.Context, input SlotInput) (claim.Slot, error) {
	ctx, span := startSpan(ctx, "ClaimService.Release")
	defer span.End()

	if err := validateSlotInput(&input); err != nil {
		return claim.Slot{}, err
	}

	var result claim.Slot
	label := "release " + input.Ref.String()
	err := s.retrier.Do(ctx, label, func(ctx context.Context) error {
		item, err := s.openPool(ctx, input)
		if err != nil {
			return err
		}

		current, err := s.readSlot(ctx, item, input)
		if err != nil {
			return err
		}
		if !current.Claimed() {
			return resilience.Permanent(fmt.Errorf("%w: %s", ErrNotClaimed, input.Ref))
		}
		if current.OwnerID != input.Actor.UserID && !input.Actor.CanAdminister(item.CommissionerID) {
			return resilience.Permanent(fmt.Errorf("%w: %s", ErrNotOwner, input.Ref))
		}

		next := current.Released()
		written, err := s.slotRepo.SaveSlot(ctx, next, current.OwnerID)
		if err != nil {
			return err
		}
		if !written {
			return resilience.Permanent(fmt.Errorf("%w: %s changed hands during release", ErrNotOwner, input.Ref))
		}
		result = next
		return nil
	})
	if err != nil {
		return claim.Slot{}, err
	}

	s.changed(ctx, telemetry.EventSlotReleased, input)
	return result, nil
}

func (s *ClaimService) ListSlots(ctx context.Context, poolID string) ([]claim.Slot, error) {
	ctx, span := startSpan(ctx, "ClaimService.ListSlots")
	defer span.End()

	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return nil, fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}

	item, exists, err := lookup(ctx, s.retrier, "get pool", func(ctx context.Context) (pool.Pool, bool, error) {
		return s.poolRepo.GetByID(ctx, poolID)
	})
	if err != nil {
		return nil, fmt.Errorf("get pool: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}

	slots, err := s.listSlots(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if len(slots) >= item.SlotCount() {
		return slots, nil
	}

	if err := ensureSlots(ctx, s.retrier, s.slotRepo, item); err != nil {
		return nil, err
	}
	return s.listSlots(ctx, poolID)
}

func (s *ClaimService) listSlots(ctx context.Context, poolID string) ([]claim.Slot, error) {
	var slots []claim.Slot
	if err := s.retrier.Do(ctx, "list slots", func(ctx context.Context) error {
		items, err := s.slotRepo.ListByPool(ctx, poolID)
		if err != nil {
			return err
		}
		slots = items
		return nil
	}); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func validateSlotInput(input *SlotInput) error {
	input.PoolID = strings.TrimSpace(input.PoolID)
	input.Actor.UserID = strings.TrimSpace(input.Actor.UserID)
	if input.PoolID == "" {
		return fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}
	if input.Actor.Anonymous() {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Ref.Kind != claim.KindGridCell && input.Ref.Kind != claim.KindStripSlot {
		return fmt.Errorf("%w: unknown slot kind %q", ErrInvalidInput, input.Ref.Kind)
	}
	return nil
}

// openPool returns the pool when it accepts claim mutations for input.Ref. Failures other than
// store errors are permanent.
func (s *ClaimService) openPool(ctx context.Context, input SlotInput) (pool.Pool, error) {
	item, exists, err := s.poolRepo.GetByID(ctx, input.PoolID)
	if err != nil {
		return pool.Pool{}, err
	}
	if !exists {
		return pool.Pool{}, resilience.Permanent(fmt.Errorf("%w: pool=%s", ErrNotFound, input.PoolID))
	}

	wantKind := claim.KindGridCell
	switch item.Format {
	case pool.FormatSquares:
	case pool.FormatStripCards:
		wantKind = claim.KindStripSlot
	default:
		return pool.Pool{}, resilience.Permanent(fmt.Errorf("%w: %s pools have no claimable slots", ErrInvalidInput, item.Format))
	}
	if input.Ref.Kind != wantKind {
		return pool.Pool{}, resilience.Permanent(fmt.Errorf("%w: %s is not a slot of a %s pool", ErrInvalidInput, input.Ref, item.Format))
	}
	if err := input.Ref.Validate(item.SlotCount()); err != nil {
		return pool.Pool{}, resilience.Permanent(fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	if item.Status != pool.StatusOpen {
		return pool.Pool{}, resilience.Permanent(fmt.Errorf("%w: pool=%s status=%s", ErrPoolNotOpen, item.ID, item.Status))
	}
	return item, nil
}

// readSlot recreates the pool's slots once when the requested one is missing.
func (s *ClaimService) readSlot(ctx context.Context, item pool.Pool, input SlotInput) (claim.Slot, error) {
	slot, exists, err := s.slotRepo.GetSlot(ctx, input.PoolID, input.Ref)
	if err != nil {
		return claim.Slot{}, err
	}
	if !exists {
		if err := s.slotRepo.CreateSlots(ctx, initialSlots(item)); err != nil {
			return claim.Slot{}, err
		}
		slot, exists, err = s.slotRepo.GetSlot(ctx, input.PoolID, input.Ref)
		if err != nil {
			return claim.Slot{}, err
		}
	}
	if !exists {
		return claim.Slot{}, resilience.Permanent(fmt.Errorf("%w: %s of pool %s", ErrNotFound, input.Ref, input.PoolID))
	}
	return slot, nil
}

func (s *ClaimService) changed(ctx context.Context, event string, input SlotInput) {
	s.logger.InfoContext(ctx, "slot ownership changed",
		"event", event,
		"pool_id", input.PoolID,
		"slot", input.Ref.String(),
		"user_id", input.Actor.UserID,
	)
	s.sink.Emit(ctx, telemetry.Event{
		Name:   event,
		PoolID: input.PoolID,
		UserID: input.Actor.UserID,
		Attrs:  map[string]string{"slot": input.Ref.String()},
	})
	if s.scoreboards != nil {
		s.scoreboards.Invalidate(ctx, input.PoolID)
	}
}
