package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
	"github.com/riskibarqy/office-pools/internal/domain/payout"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/user"
	"github.com/riskibarqy/office-pools/internal/platform/id"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/platform/random"
	"github.com/riskibarqy/office-pools/internal/platform/resilience"
	"github.com/riskibarqy/office-pools/internal/platform/telemetry"
)

const DefaultInviteCodeAttempts = 5

// errPoolChanged marks a conditional pool write that lost to a concurrent one.
var errPoolChanged = errors.New("pool changed concurrently")

type CreatePoolInput struct {
	Name       string
	Format     pool.Format
	Pot        pool.Pot
	Payout     *pool.PayoutStructure
	StripCount int
	Rules      *pool.PickemRules
	Actor      user.Principal
}

type UpdatePayoutInput struct {
	PoolID    string
	Pot       *pool.Pot
	Structure pool.PayoutStructure
	Actor     user.Principal
}

type scoreboardInvalidator interface {
	Invalidate(ctx context.Context, poolID string)
}

type PoolService struct {
	poolRepo          pool.Repository
	slotRepo          claim.Repository
	assigner          *random.Assigner
	idGen             id.Generator
	retrier           *resilience.Retrier
	logger            *logging.Logger
	sink              telemetry.Sink
	scoreboards       scoreboardInvalidator
	inviteCodeLength  int
	inviteCodeRetries int
	now               func() time.Time
}

func NewPoolService(
	poolRepo pool.Repository,
	slotRepo claim.Repository,
	assigner *random.Assigner,
	idGen id.Generator,
	retrier *resilience.Retrier,
) *PoolService {
	if assigner == nil {
		assigner = random.NewAssigner(nil)
	}
	if idGen == nil {
		idGen = id.NewUUIDGenerator()
	}
	return &PoolService{
		poolRepo:          poolRepo,
		slotRepo:          slotRepo,
		assigner:          assigner,
		idGen:             idGen,
		retrier:           defaultRetrier(retrier),
		logger:            logging.Default(),
		sink:              telemetry.Nop(),
		inviteCodeLength:  random.DefaultInviteCodeLength,
		inviteCodeRetries: DefaultInviteCodeAttempts,
		now:               time.Now,
	}
}

func (s *PoolService) SetLogger(logger *logging.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *PoolService) SetTelemetry(sink telemetry.Sink) {
	if sink != nil {
		s.sink = sink
	}
}

func (s *PoolService) SetScoreboardInvalidator(inv scoreboardInvalidator) {
	s.scoreboards = inv
}

// SetInviteCodePolicy overrides the invite code length and the number of draws tried on collision.
func (s *PoolService) SetInviteCodePolicy(length, maxAttempts int) {
	if length > 0 {
		s.inviteCodeLength = length
	}
	if maxAttempts > 0 {
		s.inviteCodeRetries = maxAttempts
	}
}

func (s *PoolService) CreatePool(ctx context.Context, input CreatePoolInput) (pool.Pool, error) {
	ctx, span := startSpan(ctx, "PoolService.CreatePool")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	if input.Actor.Anonymous() {
		return pool.Pool{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if input.Name == "" {
		return pool.Pool{}, fmt.Errorf("%w: pool name is required", ErrInvalidInput)
	}
	if _, ok := pool.AllFormats[input.Format]; !ok {
		return pool.Pool{}, fmt.Errorf("%w: unknown pool format %q", ErrInvalidInput, input.Format)
	}

	structure := pool.DefaultPayoutStructure()
	if input.Payout != nil {
		structure = *input.Payout
	}
	if _, err := payout.Allocate(input.Pot, structure); err != nil {
		return pool.Pool{}, err
	}

	rules := pool.DefaultPickemRules()
	if input.Rules != nil {
		rules = *input.Rules
	}
	if rules.UpsetBonus < 0 {
		return pool.Pool{}, fmt.Errorf("%w: upset bonus must be non-negative", ErrInvalidInput)
	}

	stripCount := 0
	if input.Format == pool.FormatStripCards {
		stripCount = input.StripCount
		if stripCount == 0 {
			stripCount = pool.DefaultStripCount
		}
		if stripCount < random.MinStripCount || stripCount > random.MaxStripCount {
			return pool.Pool{}, fmt.Errorf("%w: strip count must be in [%d,%d]", ErrInvalidInput, random.MinStripCount, random.MaxStripCount)
		}
	}

	poolID, err := s.idGen.NewID()
	if err != nil {
		return pool.Pool{}, fmt.Errorf("generate pool id: %w", err)
	}

	now := s.now().UTC()
	item, err := s.insertPool(ctx, pool.Pool{
		ID:             poolID,
		Name:           input.Name,
		CommissionerID: input.Actor.UserID,
		Status:         pool.StatusOpen,
		Format:         input.Format,
		Pot:            input.Pot,
		Payout:         structure,
		StripCount:     stripCount,
		Rules:          rules,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	})
	if err != nil {
		return pool.Pool{}, err
	}

	// Claim, ListSlots and Lock recreate missing slots, so the pool stays usable.
	if err := ensureSlots(ctx, s.retrier, s.slotRepo, item); err != nil {
		s.logger.WarnContext(ctx, "pool slots not created", "pool_id", item.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "pool created", "pool_id", item.ID, "format", item.Format, "commissioner_id", item.CommissionerID)
	s.sink.Emit(ctx, telemetry.Event{Name: telemetry.EventPoolCreated, PoolID: item.ID, UserID: item.CommissionerID})
	return item, nil
}

// insertPool draws invite codes until the store accepts one, up to the configured attempt count.
// A unique violation on insert counts as a collision, same as a hit on the existence check.
func (s *PoolService) insertPool(ctx context.Context, item pool.Pool) (pool.Pool, error) {
	for attempt := 1; attempt <= s.inviteCodeRetries; attempt++ {
		code, err := s.assigner.GenerateInviteCode(s.inviteCodeLength, "")
		if err != nil {
			return pool.Pool{}, err
		}

		var exists bool
		if err := s.retrier.Do(ctx, "check invite code", func(ctx context.Context) error {
			found, err := s.poolRepo.InviteCodeExists(ctx, code)
			exists = found
			return err
		}); err != nil {
			return pool.Pool{}, fmt.Errorf("check invite code: %w", err)
		}
		if exists {
			s.logger.DebugContext(ctx, "invite code collision", "attempt", attempt)
			continue
		}

		item.InviteCode = code
		if err := item.Validate(); err != nil {
			return pool.Pool{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		err = s.retrier.Do(ctx, "create pool", func(ctx context.Context) error {
			err := s.poolRepo.Create(ctx, item)
			if errors.Is(err, pool.ErrInviteCodeTaken) {
				return resilience.Permanent(err)
			}
			return err
		})
		if errors.Is(err, pool.ErrInviteCodeTaken) {
			s.logger.DebugContext(ctx, "invite code taken on insert", "attempt", attempt)
			continue
		}
		if err != nil {
			return pool.Pool{}, fmt.Errorf("create pool: %w", err)
		}
		return item, nil
	}

	return pool.Pool{}, fmt.Errorf("%w: %d draws collided", ErrCodeGenerationExhausted, s.inviteCodeRetries)
}

// ensureSlots inserts the slots a pool is missing. CreateSlots skips slots that already exist.
func ensureSlots(ctx context.Context, retrier *resilience.Retrier, repo claim.Repository, item pool.Pool) error {
	slots := initialSlots(item)
	if len(slots) == 0 {
		return nil
	}
	if err := retrier.Do(ctx, "create pool slots", func(ctx context.Context) error {
		return repo.CreateSlots(ctx, slots)
	}); err != nil {
		return fmt.Errorf("create pool slots: %w", err)
	}
	return nil
}

func initialSlots(p pool.Pool) []claim.Slot {
	switch p.Format {
	case pool.FormatSquares:
		return claim.InitialSlots(p.ID, claim.KindGridCell, 0)
	case pool.FormatStripCards:
		return claim.InitialSlots(p.ID, claim.KindStripSlot, p.StripCount)
	default:
		return nil
	}
}

func (s *PoolService) GetPool(ctx context.Context, poolID string) (pool.Pool, error) {
	ctx, span := startSpan(ctx, "PoolService.GetPool")
	defer span.End()

	return s.getPool(ctx, poolID)
}

func (s *PoolService) GetPoolByInviteCode(ctx context.Context, code string) (pool.Pool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return pool.Pool{}, fmt.Errorf("%w: invite code is required", ErrInvalidInput)
	}

	item, exists, err := lookup(ctx, s.retrier, "get pool by invite code", func(ctx context.Context) (pool.Pool, bool, error) {
		return s.poolRepo.GetByInviteCode(ctx, code)
	})
	if err != nil {
		return pool.Pool{}, fmt.Errorf("get pool by invite code: %w", err)
	}
	if !exists {
		return pool.Pool{}, fmt.Errorf("%w: invite code=%s", ErrNotFound, code)
	}
	return item, nil
}

func (s *PoolService) getPool(ctx context.Context, poolID string) (pool.Pool, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return pool.Pool{}, fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}

	item, exists, err := lookup(ctx, s.retrier, "get pool", func(ctx context.Context) (pool.Pool, bool, error) {
		return s.poolRepo.GetByID(ctx, poolID)
	})
	if err != nil {
		return pool.Pool{}, fmt.Errorf("get pool: %w", err)
	}
	if !exists {
		return pool.Pool{}, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}
	return item, nil
}

// Lock moves an open pool to locked and assigns its digits once. Locking a locked pool returns
// it unchanged.
func (s *PoolService) Lock(ctx context.Context, poolID string, actor user.Principal) (pool.Pool, error) {
	ctx, span := startSpan(ctx, "PoolService.Lock")
	defer span.End()

	item, err := s.getPool(ctx, poolID)
	if err != nil {
		return pool.Pool{}, err
	}
	if !actor.CanAdminister(item.CommissionerID) {
		return pool.Pool{}, fmt.Errorf("%w: only the commissioner can lock pool %s", ErrUnauthorized, item.ID)
	}
	if item.Status == pool.StatusOpen {
		if err := ensureSlots(ctx, s.retrier, s.slotRepo, item); err != nil {
			return pool.Pool{}, err
		}
	}

	item, written, err := s.mutate(ctx, "lock pool", item.ID, func(item *pool.Pool) (bool, error) {
		if item.Status == pool.StatusLocked {
			return false, nil
		}
		if err := pool.Transition(item.Status, pool.StatusLocked); err != nil {
			return false, err
		}

		if item.NeedsNumbers() {
			switch item.Format {
			case pool.FormatSquares:
				rows, cols := s.assigner.AssignGridDigits()
				item.Axis = &pool.AxisNumbers{Rows: rows, Cols: cols}
			case pool.FormatStripCards:
				numbers, err := s.assigner.AssignStripNumbers(item.StripCount)
				if err != nil {
					return false, err
				}
				item.StripNumbers = numbers
			}
		}

		now := s.now().UTC()
		item.Status = pool.StatusLocked
		item.LockedAt = &now
		item.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return pool.Pool{}, err
	}

	if written {
		s.logger.InfoContext(ctx, "pool locked", "pool_id", item.ID, "fallback_random", s.assigner.Fallback())
		s.sink.Emit(ctx, telemetry.Event{Name: telemetry.EventPoolLocked, PoolID: item.ID, UserID: actor.UserID})
	}
	return item, nil
}

func (s *PoolService) Complete(ctx context.Context, poolID string, actor user.Principal) (pool.Pool, error) {
	ctx, span := startSpan(ctx, "PoolService.Complete")
	defer span.End()

	item, err := s.getPool(ctx, poolID)
	if err != nil {
		return pool.Pool{}, err
	}
	if !actor.CanAdminister(item.CommissionerID) {
		return pool.Pool{}, fmt.Errorf("%w: only the commissioner can complete pool %s", ErrUnauthorized, item.ID)
	}

	item, _, err = s.mutate(ctx, "complete pool", item.ID, func(item *pool.Pool) (bool, error) {
		if err := pool.Transition(item.Status, pool.StatusCompleted); err != nil {
			return false, err
		}
		now := s.now().UTC()
		item.Status = pool.StatusCompleted
		item.CompletedAt = &now
		item.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return pool.Pool{}, err
	}
	return item, nil
}

// UpdatePayout replaces the payout structure and optionally the pot. Completed pools are frozen.
func (s *PoolService) UpdatePayout(ctx context.Context, input UpdatePayoutInput) (pool.Pool, error) {
	ctx, span := startSpan(ctx, "PoolService.UpdatePayout")
	defer span.End()

	item, err := s.getPool(ctx, input.PoolID)
	if err != nil {
		return pool.Pool{}, err
	}
	if !input.Actor.CanAdminister(item.CommissionerID) {
		return pool.Pool{}, fmt.Errorf("%w: only the commissioner can change the payout of pool %s", ErrUnauthorized, item.ID)
	}

	item, _, err = s.mutate(ctx, "update pool payout", item.ID, func(item *pool.Pool) (bool, error) {
		if item.Status == pool.StatusCompleted {
			return false, fmt.Errorf("%w: payout of a completed pool cannot change", pool.ErrInvalidTransition)
		}

		pot := item.Pot
		if input.Pot != nil {
			pot = *input.Pot
		}
		if _, err := payout.Allocate(pot, input.Structure); err != nil {
			return false, err
		}

		item.Pot = pot
		item.Payout = input.Structure
		item.UpdatedAt = s.now().UTC()
		return true, nil
	})
	if err != nil {
		return pool.Pool{}, err
	}
	return item, nil
}

// ListByStatus is used by the rescore job.
func (s *PoolService) ListByStatus(ctx context.Context, status pool.Status) ([]pool.Pool, error) {
	var out []pool.Pool
	err := s.retrier.Do(ctx, "list pools by status", func(ctx context.Context) error {
		items, err := s.poolRepo.ListByStatus(ctx, status)
		if err != nil {
			return err
		}
		out = items
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list pools by status: %w", err)
	}
	return out, nil
}

// mutate re-reads the pool on every attempt, applies change to the fresh copy and writes it only
// if the stored version is still the one that was read. change reports whether it modified the
// pool; its errors are final. A lost version race re-runs the whole attempt.
func (s *PoolService) mutate(ctx context.Context, label, poolID string, change func(*pool.Pool) (bool, error)) (pool.Pool, bool, error) {
	var (
		result  pool.Pool
		written bool
	)
	err := s.retrier.Do(ctx, label, func(ctx context.Context) error {
		current, exists, err := s.poolRepo.GetByID(ctx, poolID)
		if err != nil {
			return err
		}
		if !exists {
			return resilience.Permanent(fmt.Errorf("%w: pool=%s", ErrNotFound, poolID))
		}

		next := current
		modified, err := change(&next)
		if err != nil {
			return resilience.Permanent(err)
		}
		if !modified {
			result = current
			return nil
		}

		next.Version = current.Version + 1
		stored, err := s.poolRepo.Update(ctx, next, current.Version)
		if err != nil {
			return err
		}
		if !stored {
			return fmt.Errorf("%w: pool=%s version=%d", errPoolChanged, poolID, current.Version)
		}
		result = next
		written = true
		return nil
	})
	if err != nil {
		return pool.Pool{}, false, fmt.Errorf("%s: %w", label, err)
	}

	if written && s.scoreboards != nil {
		s.scoreboards.Invalidate(ctx, poolID)
	}
	return result, written, nil
}
