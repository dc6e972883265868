package usecase

import (
	"context"
	"errors"

	"github.com/riskibarqy/office-pools/internal/domain/payout"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/scoring"
	"github.com/riskibarqy/office-pools/internal/platform/random"
	"github.com/riskibarqy/office-pools/internal/platform/resilience"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrAlreadyClaimed   = errors.New("slot already claimed")
	ErrNotOwner         = errors.New("slot owned by another user")
	ErrNotClaimed       = errors.New("slot is not claimed")
	ErrPoolNotOpen      = errors.New("pool is not open")
	ErrMatchupCompleted = errors.New("matchup already completed")

	ErrCodeGenerationExhausted = errors.New("invite code generation exhausted")
)

// ErrorClass is the closed set of failure kinds callers branch on.
type ErrorClass string

const (
	ClassNone       ErrorClass = ""
	ClassValidation ErrorClass = "validation"
	ClassConflict   ErrorClass = "conflict"
	ClassTransient  ErrorClass = "transient"
	ClassExhaustion ErrorClass = "exhaustion"
	ClassNotFound   ErrorClass = "not_found"
)

var (
	validationErrors = []error{
		ErrInvalidInput,
		random.ErrInvalidLength,
		random.ErrEmptyInput,
		payout.ErrInvalidStructure,
		payout.ErrInvalidPot,
		pool.ErrInvalidTransition,
	}
	conflictErrors = []error{
		ErrAlreadyClaimed,
		ErrNotOwner,
		ErrNotClaimed,
		ErrPoolNotOpen,
		ErrMatchupCompleted,
		ErrUnauthorized,
	}
	exhaustionErrors = []error{
		ErrCodeGenerationExhausted,
		scoring.ErrNoMatchupsFound,
		scoring.ErrNoMatchupsForWeek,
		scoring.ErrAxisMissing,
	}
)

// ClassOf maps err onto the error taxonomy. Anything unrecognised is transient.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}

	var exhausted *resilience.ExhaustedError
	if errors.As(err, &exhausted) {
		return ClassTransient
	}
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, ErrDependencyUnavailable) {
		return ClassTransient
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	switch {
	case isAny(err, validationErrors):
		return ClassValidation
	case isAny(err, conflictErrors):
		return ClassConflict
	case isAny(err, exhaustionErrors):
		return ClassExhaustion
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	default:
		return ClassTransient
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
