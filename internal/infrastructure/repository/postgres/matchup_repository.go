package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	qb "github.com/riskibarqy/office-pools/internal/platform/querybuilder"
)

var matchupColumns = []string{
	"public_id",
	"pool_public_id",
	"game_id",
	"home_team",
	"away_team",
	"start_time",
	"status",
	"scores",
	"favorite",
	"week",
	"updated_at",
}

type matchupTableModel struct {
	PublicID     string    `db:"public_id"`
	PoolPublicID string    `db:"pool_public_id"`
	GameID       string    `db:"game_id"`
	HomeTeam     string    `db:"home_team"`
	AwayTeam     string    `db:"away_team"`
	StartTime    time.Time `db:"start_time"`
	Status       string    `db:"status"`
	Scores       string    `db:"scores"`
	Favorite     string    `db:"favorite"`
	Week         int       `db:"week"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type pickTableModel struct {
	MatchupPublicID string    `db:"matchup_public_id"`
	UserID          string    `db:"user_id"`
	Side            string    `db:"side"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type MatchupRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewMatchupRepository(db *sqlx.DB) *MatchupRepository {
	return &MatchupRepository{db: db, now: time.Now}
}

func (r *MatchupRepository) Create(ctx context.Context, m matchup.Matchup) error {
	row, err := matchupToRow(m)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("matchups", row, "")
	if err != nil {
		return fmt.Errorf("build insert matchup query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert matchup public_id=%s: %w", m.ID, err)
	}
	return nil
}

func (r *MatchupRepository) GetByID(ctx context.Context, matchupID string) (matchup.Matchup, bool, error) {
	query, args, err := qb.Select(matchupColumns...).From("matchups").
		Where(qb.Eq("public_id", matchupID)).
		ToSQL()
	if err != nil {
		return matchup.Matchup{}, false, fmt.Errorf("build get matchup query: %w", err)
	}

	var row matchupTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return matchup.Matchup{}, false, nil
		}
		return matchup.Matchup{}, false, fmt.Errorf("get matchup: %w", err)
	}

	items, err := r.withPicks(ctx, []matchupTableModel{row})
	if err != nil {
		return matchup.Matchup{}, false, err
	}
	return items[0], true, nil
}

func (r *MatchupRepository) ListByPool(ctx context.Context, poolID string) ([]matchup.Matchup, error) {
	query, args, err := qb.Select(matchupColumns...).From("matchups").
		Where(qb.Eq("pool_public_id", poolID)).
		OrderBy("start_time", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matchups query: %w", err)
	}

	var rows []matchupTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matchups pool=%s: %w", poolID, err)
	}
	return r.withPicks(ctx, rows)
}

// Update rewrites the matchup row. Picks live in their own table and are left alone.
func (r *MatchupRepository) Update(ctx context.Context, m matchup.Matchup) error {
	row, err := matchupToRow(m)
	if err != nil {
		return err
	}

	query, args, err := qb.Update("matchups").
		Set("home_team", row.HomeTeam).
		Set("away_team", row.AwayTeam).
		Set("start_time", row.StartTime).
		Set("status", row.Status).
		Set("scores", row.Scores).
		Set("favorite", row.Favorite).
		Set("week", row.Week).
		Set("updated_at", row.UpdatedAt).
		Where(qb.Eq("public_id", m.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update matchup query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update matchup public_id=%s: %w", m.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update matchup public_id=%s: no rows affected", m.ID)
	}
	return nil
}

func (r *MatchupRepository) SavePick(ctx context.Context, matchupID, userID string, side matchup.Side) error {
	row := pickTableModel{
		MatchupPublicID: matchupID,
		UserID:          userID,
		Side:            string(side),
		UpdatedAt:       r.now().UTC(),
	}
	query, args, err := qb.InsertModel("matchup_picks", row, `ON CONFLICT (matchup_public_id, user_id)
DO UPDATE SET
    side = EXCLUDED.side,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert pick query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert pick matchup=%s user=%s: %w", matchupID, userID, err)
	}
	return nil
}

func (r *MatchupRepository) withPicks(ctx context.Context, rows []matchupTableModel) ([]matchup.Matchup, error) {
	out := make([]matchup.Matchup, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]any, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PublicID)
	}
	query, args, err := qb.Select("matchup_public_id", "user_id", "side", "updated_at").From("matchup_picks").
		Where(qb.In("matchup_public_id", ids)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks query: %w", err)
	}

	var picks []pickTableModel
	if err := r.db.SelectContext(ctx, &picks, query, args...); err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}
	byMatchup := make(map[string]map[string]matchup.Side, len(rows))
	for _, p := range picks {
		if byMatchup[p.MatchupPublicID] == nil {
			byMatchup[p.MatchupPublicID] = make(map[string]matchup.Side)
		}
		byMatchup[p.MatchupPublicID][p.UserID] = matchup.Side(p.Side)
	}

	for _, row := range rows {
		m, err := matchupFromRow(row)
		if err != nil {
			return nil, err
		}
		if picks, ok := byMatchup[row.PublicID]; ok {
			m.Picks = picks
		}
		out = append(out, m)
	}
	return out, nil
}

func matchupToRow(m matchup.Matchup) (matchupTableModel, error) {
	scores := m.Scores
	if scores == nil {
		scores = map[matchup.Period]matchup.Score{}
	}
	encoded, err := encodeJSON(scores)
	if err != nil {
		return matchupTableModel{}, fmt.Errorf("encode scores matchup=%s: %w", m.ID, err)
	}

	return matchupTableModel{
		PublicID:     m.ID,
		PoolPublicID: m.PoolID,
		GameID:       m.GameID,
		HomeTeam:     m.HomeTeam,
		AwayTeam:     m.AwayTeam,
		StartTime:    m.StartTime,
		Status:       string(m.Status),
		Scores:       encoded,
		Favorite:     string(m.Favorite),
		Week:         m.Week,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func matchupFromRow(row matchupTableModel) (matchup.Matchup, error) {
	m := matchup.Matchup{
		ID:        row.PublicID,
		PoolID:    row.PoolPublicID,
		GameID:    row.GameID,
		HomeTeam:  row.HomeTeam,
		AwayTeam:  row.AwayTeam,
		StartTime: row.StartTime,
		Status:    matchup.Status(row.Status),
		Scores:    map[matchup.Period]matchup.Score{},
		Favorite:  matchup.Side(row.Favorite),
		Picks:     map[string]matchup.Side{},
		Week:      row.Week,
		UpdatedAt: row.UpdatedAt,
	}
	if err := decodeJSON(row.Scores, &m.Scores); err != nil {
		return matchup.Matchup{}, fmt.Errorf("decode scores matchup=%s: %w", row.PublicID, err)
	}
	return m, nil
}
