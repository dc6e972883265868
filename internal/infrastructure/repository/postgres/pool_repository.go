package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/riskibarqy/office-pools/internal/domain/pool"
	qb "github.com/riskibarqy/office-pools/internal/platform/querybuilder"
)

type PoolRepository struct {
	db *sqlx.DB
}

func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

func (r *PoolRepository) Create(ctx context.Context, p pool.Pool) error {
	row, err := poolToRow(p)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("pools", row, "")
	if err != nil {
		return fmt.Errorf("build insert pool query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolationOn(err, inviteCodeConstraint) {
			return fmt.Errorf("insert pool public_id=%s code=%s: %w", p.ID, p.InviteCode, pool.ErrInviteCodeTaken)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("insert pool public_id=%s: duplicate id: %w", p.ID, err)
		}
		return fmt.Errorf("insert pool public_id=%s: %w", p.ID, err)
	}
	return nil
}

func (r *PoolRepository) GetByID(ctx context.Context, poolID string) (pool.Pool, bool, error) {
	return r.getOne(ctx, "get pool by id", qb.Eq("public_id", poolID))
}

func (r *PoolRepository) GetByInviteCode(ctx context.Context, code string) (pool.Pool, bool, error) {
	return r.getOne(ctx, "get pool by invite code", qb.Eq("invite_code", code))
}

func (r *PoolRepository) getOne(ctx context.Context, label string, cond qb.Condition) (pool.Pool, bool, error) {
	query, args, err := qb.Select(poolColumns...).From("pools").
		Where(cond, qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return pool.Pool{}, false, fmt.Errorf("build %s query: %w", label, err)
	}

	var row poolTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pool.Pool{}, false, nil
		}
		return pool.Pool{}, false, fmt.Errorf("%s: %w", label, err)
	}

	item, err := poolFromRow(row)
	if err != nil {
		return pool.Pool{}, false, err
	}
	return item, true, nil
}

func (r *PoolRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	query, args, err := inviteCodeExistsQuery(code)
	if err != nil {
		return false, fmt.Errorf("build invite code exists query: %w", err)
	}

	var found int
	if err := r.db.GetContext(ctx, &found, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check invite code: %w", err)
	}
	return true, nil
}

func inviteCodeExistsQuery(code string) (string, []any, error) {
	return qb.Select("1").From("pools").
		Where(qb.Eq("invite_code", code)).
		Limit(1).
		ToSQL()
}

// Update is a conditional write on the version column.
func (r *PoolRepository) Update(ctx context.Context, p pool.Pool, expectedVersion int64) (bool, error) {
	row, err := poolToRow(p)
	if err != nil {
		return false, err
	}

	query, args, err := updatePoolQuery(row, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("build update pool query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update pool public_id=%s: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update pool rows affected: %w", err)
	}
	return n == 1, nil
}

func updatePoolQuery(row poolTableModel, expectedVersion int64) (string, []any, error) {
	return qb.Update("pools").
		Set("name", row.Name).
		Set("status", row.Status).
		Set("pot_amount", row.PotAmount).
		Set("donations_only", row.DonationsOnly).
		Set("payout_q1", row.PayoutQ1).
		Set("payout_q2", row.PayoutQ2).
		Set("payout_q3", row.PayoutQ3).
		Set("payout_final", row.PayoutFinal).
		Set("strip_numbers", row.StripNumbers).
		Set("axis_numbers", row.AxisNumbers).
		Set("pickem_rules", row.PickemRules).
		Set("updated_at", row.UpdatedAt).
		Set("locked_at", row.LockedAt).
		Set("completed_at", row.CompletedAt).
		Set("version", row.Version).
		Where(qb.Eq("public_id", row.PublicID), qb.Eq("version", expectedVersion), qb.IsNull("deleted_at")).
		ToSQL()
}

func (r *PoolRepository) ListByStatus(ctx context.Context, status pool.Status) ([]pool.Pool, error) {
	query, args, err := qb.Select(poolColumns...).From("pools").
		Where(qb.Eq("status", string(status)), qb.IsNull("deleted_at")).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pools by status query: %w", err)
	}

	var rows []poolTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pools by status: %w", err)
	}

	out := make([]pool.Pool, 0, len(rows))
	for _, row := range rows {
		item, err := poolFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func poolToRow(p pool.Pool) (poolTableModel, error) {
	rules, err := encodeJSON(p.Rules)
	if err != nil {
		return poolTableModel{}, fmt.Errorf("encode pickem rules pool=%s: %w", p.ID, err)
	}

	row := poolTableModel{
		PublicID:       p.ID,
		Name:           p.Name,
		CommissionerID: p.CommissionerID,
		Status:         string(p.Status),
		Format:         string(p.Format),
		PotAmount:      decimal.NewFromFloat(p.Pot.Amount).Round(2),
		DonationsOnly:  p.Pot.DonationsOnly,
		PayoutQ1:       p.Payout.Q1,
		PayoutQ2:       p.Payout.Q2,
		PayoutQ3:       p.Payout.Q3,
		PayoutFinal:    p.Payout.Final,
		StripCount:     p.StripCount,
		InviteCode:     p.InviteCode,
		PickemRules:    rules,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		LockedAt:       p.LockedAt,
		CompletedAt:    p.CompletedAt,
		Version:        p.Version,
	}
	if len(p.StripNumbers) > 0 {
		row.StripNumbers = make(pq.Int64Array, 0, len(p.StripNumbers))
		for _, n := range p.StripNumbers {
			row.StripNumbers = append(row.StripNumbers, int64(n))
		}
	}
	if p.Axis != nil {
		axis, err := encodeJSON(p.Axis)
		if err != nil {
			return poolTableModel{}, fmt.Errorf("encode axis pool=%s: %w", p.ID, err)
		}
		row.AxisNumbers = nullString(axis)
	}
	return row, nil
}

func poolFromRow(row poolTableModel) (pool.Pool, error) {
	item := pool.Pool{
		ID:             row.PublicID,
		Name:           row.Name,
		CommissionerID: row.CommissionerID,
		Status:         pool.Status(row.Status),
		Format:         pool.Format(row.Format),
		Pot:            pool.Pot{Amount: row.PotAmount.InexactFloat64(), DonationsOnly: row.DonationsOnly},
		Payout: pool.PayoutStructure{
			Q1:    row.PayoutQ1,
			Q2:    row.PayoutQ2,
			Q3:    row.PayoutQ3,
			Final: row.PayoutFinal,
		},
		StripCount:  row.StripCount,
		InviteCode:  row.InviteCode,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		LockedAt:    row.LockedAt,
		CompletedAt: row.CompletedAt,
		Version:     row.Version,
	}

	if err := decodeJSON(row.PickemRules, &item.Rules); err != nil {
		return pool.Pool{}, fmt.Errorf("decode pickem rules pool=%s: %w", row.PublicID, err)
	}
	if row.AxisNumbers.Valid {
		var axis pool.AxisNumbers
		if err := decodeJSON(row.AxisNumbers.String, &axis); err != nil {
			return pool.Pool{}, fmt.Errorf("decode axis pool=%s: %w", row.PublicID, err)
		}
		item.Axis = &axis
	}
	if len(row.StripNumbers) > 0 {
		item.StripNumbers = make([]int, 0, len(row.StripNumbers))
		for _, n := range row.StripNumbers {
			item.StripNumbers = append(item.StripNumbers, int(n))
		}
	}
	return item, nil
}
