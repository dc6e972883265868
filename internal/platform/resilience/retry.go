package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

type RetryConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	CircuitBreaker CircuitBreakerConfig
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// RetryEvent describes one failed attempt. Final is set on the attempt that exhausts the budget.
type RetryEvent struct {
	Label       string
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
	Final       bool
	Err         error
}

// ExhaustedError is returned once every attempt failed with a transient error.
type ExhaustedError struct {
	Label    string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Label, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Retrier.Do returns the unwrapped error immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

type RetryOption func(*Retrier)

// WithOnRetry registers a notification hook invoked exactly once per failed attempt.
func WithOnRetry(fn func(context.Context, RetryEvent)) RetryOption {
	return func(r *Retrier) {
		r.onRetry = fn
	}
}

// WithOnCircuitChange registers a hook for circuit breaker state transitions. It runs with the
// breaker locked and must not call back into the retrier.
func WithOnCircuitChange(fn func(from, to CircuitState)) RetryOption {
	return func(r *Retrier) {
		r.onCircuitChange = fn
	}
}

// Retrier runs store actions with bounded exponential backoff. The backoff wait is bound to the
// caller's context: cancelling it abandons the pending attempt.
type Retrier struct {
	maxAttempts     int
	baseDelay       time.Duration
	onRetry         func(context.Context, RetryEvent)
	onCircuitChange func(from, to CircuitState)
	breaker         *CircuitBreaker
	circuitEnabled  bool
	sleep           func(context.Context, time.Duration) error
}

func NewRetrier(cfg RetryConfig, opts ...RetryOption) *Retrier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}

	r := &Retrier{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	if cfg.CircuitBreaker.Enabled {
		r.breaker = NewCircuitBreaker(cfg.CircuitBreaker)
		r.breaker.onChange = r.onCircuitChange
		r.circuitEnabled = true
	}

	return r
}

func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

// Delay returns the wait before the attempt that follows attempt n (1-based).
func (r *Retrier) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return r.baseDelay * time.Duration(1<<(attempt-1))
}

func (r *Retrier) Do(ctx context.Context, label string, action func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return crerr.Wrapf(err, "%s abandoned before attempt %d", label, attempt)
		}
		if r.circuitEnabled {
			if err := r.breaker.Allow(); err != nil {
				return crerr.Wrapf(err, "%s rejected", label)
			}
		}

		err := action(ctx)
		if err == nil {
			r.recordResult(false)
			return nil
		}

		var permanent *permanentError
		if errors.As(err, &permanent) {
			r.recordResult(false)
			return permanent.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return crerr.WithSecondaryError(crerr.Wrapf(ctxErr, "%s abandoned during attempt %d", label, attempt), err)
		}
		r.recordResult(true)

		event := RetryEvent{
			Label:       label,
			Attempt:     attempt,
			MaxAttempts: r.maxAttempts,
			Err:         err,
		}
		if attempt >= r.maxAttempts {
			event.Final = true
			r.notify(ctx, event)
			return &ExhaustedError{Label: label, Attempts: attempt, Err: err}
		}

		event.Delay = r.Delay(attempt)
		r.notify(ctx, event)
		if sleepErr := r.sleep(ctx, event.Delay); sleepErr != nil {
			return crerr.WithSecondaryError(crerr.Wrapf(sleepErr, "%s abandoned after attempt %d", label, attempt), err)
		}
	}
}

// Run is Do for actions that produce a value.
func Run[T any](ctx context.Context, r *Retrier, label string, action func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, label, func(ctx context.Context) error {
		v, err := action(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (r *Retrier) CircuitState() CircuitState {
	if !r.circuitEnabled {
		return CircuitStateClosed
	}
	return r.breaker.State()
}

func (r *Retrier) recordResult(failed bool) {
	if !r.circuitEnabled {
		return
	}
	if failed {
		r.breaker.RecordFailure()
		return
	}
	r.breaker.RecordSuccess()
}

func (r *Retrier) notify(ctx context.Context, event RetryEvent) {
	if r.onRetry != nil {
		r.onRetry(ctx, event)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
