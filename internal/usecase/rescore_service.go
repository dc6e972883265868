package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/scoreboard"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/platform/telemetry"
)

const (
	defaultRescoreWorkers = 4
	maxRescoreWorkers     = 32

	rescoreStatusSuccess = "success"
	rescoreStatusSkipped = "skipped"
	rescoreStatusFailed  = "failed"
)

type RescoreTaskResult struct {
	PoolID     string
	Format     pool.Format
	Status     string
	Message    string
	DurationMs int64
}

type RescoreResult struct {
	PoolCount    int
	WorkerCount  int
	SuccessCount int
	SkippedCount int
	FailedCount  int
	Tasks        []RescoreTaskResult
}

type poolLister interface {
	ListByStatus(ctx context.Context, status pool.Status) ([]pool.Pool, error)
}

type scoreboardRecomputer interface {
	Recompute(ctx context.Context, poolID string, week int) (scoreboard.Snapshot, error)
}

// RescoreService recomputes the overall scoreboard of every locked pool.
type RescoreService struct {
	pools   poolLister
	boards  scoreboardRecomputer
	workers int
	logger  *logging.Logger
	sink    telemetry.Sink
}

func NewRescoreService(pools poolLister, boards scoreboardRecomputer, workers int) *RescoreService {
	return &RescoreService{
		pools:   pools,
		boards:  boards,
		workers: workers,
		logger:  logging.Default(),
		sink:    telemetry.Nop(),
	}
}

func (s *RescoreService) SetLogger(logger *logging.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *RescoreService) SetTelemetry(sink telemetry.Sink) {
	if sink != nil {
		s.sink = sink
	}
}

func normalizeRescoreWorkerCount(requested, tasks int) int {
	n := requested
	if n <= 0 {
		n = defaultRescoreWorkers
	}
	if n > maxRescoreWorkers {
		n = maxRescoreWorkers
	}
	if tasks > 0 && n > tasks {
		n = tasks
	}
	return n
}

func (s *RescoreService) RescoreAll(ctx context.Context) (RescoreResult, error) {
	ctx, span := startSpan(ctx, "RescoreService.RescoreAll")
	defer span.End()

	targets, err := s.pools.ListByStatus(ctx, pool.StatusLocked)
	if err != nil {
		return RescoreResult{}, err
	}

	workerCount := normalizeRescoreWorkerCount(s.workers, len(targets))
	result := RescoreResult{
		PoolCount:   len(targets),
		WorkerCount: workerCount,
		Tasks:       make([]RescoreTaskResult, 0, len(targets)),
	}
	if len(targets) == 0 {
		return result, nil
	}

	results := make(chan RescoreTaskResult, len(targets))
	var successCount, skippedCount, failedCount atomic.Int32

	workers, err := ants.NewPool(workerCount)
	if err != nil {
		return RescoreResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workers.Release()

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()

			start := time.Now()
			row := RescoreTaskResult{PoolID: target.ID, Format: target.Format}
			row.Status, row.Message = s.rescoreOne(ctx, target.ID)
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case rescoreStatusSuccess:
				successCount.Add(1)
			case rescoreStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}
			results <- row
		}); err != nil {
			wg.Done()
			return RescoreResult{}, fmt.Errorf("submit rescore task: %w", err)
		}
	}

	wg.Wait()
	close(results)
	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].PoolID < result.Tasks[j].PoolID
	})

	result.SuccessCount = int(successCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	result.FailedCount = int(failedCount.Load())

	s.logger.InfoContext(ctx, "rescore finished",
		"pools", result.PoolCount,
		"success", result.SuccessCount,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount,
	)
	s.sink.Emit(ctx, telemetry.Event{
		Name: telemetry.EventRescored,
		Attrs: map[string]string{
			"pools":  fmt.Sprint(result.PoolCount),
			"failed": fmt.Sprint(result.FailedCount),
		},
	})
	return result, nil
}

func (s *RescoreService) rescoreOne(ctx context.Context, poolID string) (string, string) {
	if err := ctx.Err(); err != nil {
		return rescoreStatusFailed, err.Error()
	}

	_, err := s.boards.Recompute(ctx, poolID, scoreboard.OverallWeek)
	switch ClassOf(err) {
	case ClassNone:
		return rescoreStatusSuccess, ""
	case ClassExhaustion:
		return rescoreStatusSkipped, err.Error()
	default:
		s.logger.WarnContext(ctx, "rescore pool failed", "pool_id", poolID, "error", err)
		return rescoreStatusFailed, err.Error()
	}
}
