package usecase

import (
	"context"

	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/platform/resilience"
	"github.com/riskibarqy/office-pools/internal/platform/telemetry"
)

// NewStoreRetrier builds the retrier shared by every service. Each failed attempt produces one
// warning line and one telemetry event.
func NewStoreRetrier(cfg resilience.RetryConfig, logger *logging.Logger, sink telemetry.Sink) *resilience.Retrier {
	if logger == nil {
		logger = logging.Default()
	}
	if sink == nil {
		sink = telemetry.Nop()
	}

	onRetry := resilience.WithOnRetry(func(ctx context.Context, e resilience.RetryEvent) {
		name := telemetry.EventRetry
		if e.Final {
			name = telemetry.EventRetryFailed
		}
		logger.WarnContext(ctx, "store operation failed",
			"label", e.Label,
			"attempt", e.Attempt,
			"max_attempts", e.MaxAttempts,
			"retry_in", e.Delay,
			"final", e.Final,
			"error", e.Err,
		)
		sink.Emit(ctx, telemetry.Event{
			Name:        name,
			Label:       e.Label,
			Attempt:     e.Attempt,
			MaxAttempts: e.MaxAttempts,
			Error:       e.Err.Error(),
		})
	})
	onCircuit := resilience.WithOnCircuitChange(func(from, to resilience.CircuitState) {
		logger.Warn("store circuit breaker changed state", "from", from, "to", to)
		sink.Emit(context.Background(), telemetry.Event{
			Name:  telemetry.EventCircuit,
			Attrs: map[string]string{"from": string(from), "to": string(to)},
		})
	})

	return resilience.NewRetrier(cfg, onRetry, onCircuit)
}

func defaultRetrier(r *resilience.Retrier) *resilience.Retrier {
	if r != nil {
		return r
	}
	return resilience.NewRetrier(resilience.DefaultRetryConfig())
}

// lookup runs a (value, exists, error) repository read through the retrier.
func lookup[T any](ctx context.Context, r *resilience.Retrier, label string, fn func(context.Context) (T, bool, error)) (T, bool, error) {
	var (
		out   T
		found bool
	)
	err := r.Do(ctx, label, func(ctx context.Context) error {
		v, ok, err := fn(ctx)
		if err != nil {
			return err
		}
		out, found = v, ok
		return nil
	})
	return out, found, err
}
