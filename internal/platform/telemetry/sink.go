package telemetry

import (
	"context"
	"time"

	"github.com/riskibarqy/office-pools/internal/platform/logging"
)

const (
	EventRetry        = "store.retry"
	EventRetryFailed  = "store.retry_exhausted"
	EventCircuit      = "store.circuit_changed"
	EventPoolCreated  = "pool.created"
	EventPoolLocked   = "pool.locked"
	EventSlotClaimed  = "slot.claimed"
	EventSlotReleased = "slot.released"
	EventRescored     = "scoreboard.rescored"
)

// Event is a fire-and-forget telemetry record.
type Event struct {
	Name        string            `json:"name"`
	Label       string            `json:"label,omitempty"`
	PoolID      string            `json:"pool_id,omitempty"`
	UserID      string            `json:"user_id,omitempty"`
	Attempt     int               `json:"attempt,omitempty"`
	MaxAttempts int               `json:"max_attempts,omitempty"`
	Error       string            `json:"error,omitempty"`
	Attrs       map[string]string `json:"attrs,omitempty"`
	At          time.Time         `json:"at"`
}

// Sink receives events. Emit must not block the caller and never reports failure.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

type nopSink struct{}

func (nopSink) Emit(context.Context, Event) {}

func Nop() Sink { return nopSink{} }

// LogSink writes events as debug lines.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, event Event) {
	s.logger.DebugContext(ctx, "telemetry event",
		"event", event.Name,
		"label", event.Label,
		"pool_id", event.PoolID,
		"attempt", event.Attempt,
		"error", event.Error,
	)
}
