package scoreboard

import "context"

// Repository stores the latest snapshot per pool and week.
type Repository interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Get(ctx context.Context, poolID string, week int) (Snapshot, bool, error)
}
