package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/office-pools/internal/domain/scoreboard"
	qb "github.com/riskibarqy/office-pools/internal/platform/querybuilder"
)

type scoreboardTableModel struct {
	PoolPublicID string    `db:"pool_public_id"`
	Week         int       `db:"week"`
	Payload      string    `db:"payload"`
	ComputedAt   time.Time `db:"computed_at"`
}

// ScoreboardRepository keeps the latest snapshot per pool and week as a JSON payload.
type ScoreboardRepository struct {
	db *sqlx.DB
}

func NewScoreboardRepository(db *sqlx.DB) *ScoreboardRepository {
	return &ScoreboardRepository{db: db}
}

func (r *ScoreboardRepository) Save(ctx context.Context, snapshot scoreboard.Snapshot) error {
	payload, err := encodeJSON(snapshot)
	if err != nil {
		return fmt.Errorf("encode scoreboard pool=%s: %w", snapshot.PoolID, err)
	}

	row := scoreboardTableModel{
		PoolPublicID: snapshot.PoolID,
		Week:         snapshot.Week,
		Payload:      payload,
		ComputedAt:   snapshot.ComputedAt,
	}
	query, args, err := qb.InsertModel("scoreboard_snapshots", row, `ON CONFLICT (pool_public_id, week)
DO UPDATE SET
    payload = EXCLUDED.payload,
    computed_at = EXCLUDED.computed_at`)
	if err != nil {
		return fmt.Errorf("build upsert scoreboard query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert scoreboard pool=%s week=%d: %w", snapshot.PoolID, snapshot.Week, err)
	}
	return nil
}

func (r *ScoreboardRepository) Get(ctx context.Context, poolID string, week int) (scoreboard.Snapshot, bool, error) {
	query, args, err := qb.Select("pool_public_id", "week", "payload", "computed_at").From("scoreboard_snapshots").
		Where(qb.Eq("pool_public_id", poolID), qb.Eq("week", week)).
		ToSQL()
	if err != nil {
		return scoreboard.Snapshot{}, false, fmt.Errorf("build get scoreboard query: %w", err)
	}

	var row scoreboardTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return scoreboard.Snapshot{}, false, nil
		}
		return scoreboard.Snapshot{}, false, fmt.Errorf("get scoreboard: %w", err)
	}

	var out scoreboard.Snapshot
	if err := decodeJSON(row.Payload, &out); err != nil {
		return scoreboard.Snapshot{}, false, fmt.Errorf("decode scoreboard pool=%s week=%d: %w", poolID, week, err)
	}
	return out, true, nil
}
