package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
	qb "github.com/riskibarqy/office-pools/internal/platform/querybuilder"
)

var slotColumns = []string{
	"pool_public_id",
	"kind",
	"slot_index",
	"row_idx",
	"col_idx",
	"position",
	"owner_id",
	"claimed_at",
	"status",
}

type slotTableModel struct {
	PoolPublicID string     `db:"pool_public_id"`
	Kind         string     `db:"kind"`
	SlotIndex    int        `db:"slot_index"`
	RowIdx       int        `db:"row_idx"`
	ColIdx       int        `db:"col_idx"`
	Position     int        `db:"position"`
	OwnerID      string     `db:"owner_id"`
	ClaimedAt    *time.Time `db:"claimed_at"`
	Status       string     `db:"status"`
}

// SlotRepository stores grid cells and strip slots. SaveSlot is a conditional update on the
// stored owner, so two racing claims cannot both win.
type SlotRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db, now: time.Now}
}

func (r *SlotRepository) CreateSlots(ctx context.Context, slots []claim.Slot) error {
	if len(slots) == 0 {
		return nil
	}

	builder := qb.InsertInto("pool_slots").Columns(slotColumns...)
	for _, s := range slots {
		row := slotToRow(s)
		builder.Values(row.PoolPublicID, row.Kind, row.SlotIndex, row.RowIdx, row.ColIdx, row.Position, row.OwnerID, row.ClaimedAt, row.Status)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (pool_public_id, kind, slot_index) DO NOTHING").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert pool slots query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx insert pool slots: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pool slots pool=%s: %w", slots[0].PoolID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert pool slots tx: %w", err)
	}
	return nil
}

func (r *SlotRepository) GetSlot(ctx context.Context, poolID string, ref claim.Ref) (claim.Slot, bool, error) {
	query, args, err := qb.Select(slotColumns...).From("pool_slots").
		Where(
			qb.Eq("pool_public_id", poolID),
			qb.Eq("kind", string(ref.Kind)),
			qb.Eq("slot_index", ref.Index()),
		).
		ToSQL()
	if err != nil {
		return claim.Slot{}, false, fmt.Errorf("build get slot query: %w", err)
	}

	var row slotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return claim.Slot{}, false, nil
		}
		return claim.Slot{}, false, fmt.Errorf("get slot pool=%s %s: %w", poolID, ref, err)
	}
	return slotFromRow(row), true, nil
}

func (r *SlotRepository) ListByPool(ctx context.Context, poolID string) ([]claim.Slot, error) {
	query, args, err := qb.Select(slotColumns...).From("pool_slots").
		Where(qb.Eq("pool_public_id", poolID)).
		OrderBy("slot_index").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list slots query: %w", err)
	}

	var rows []slotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list slots pool=%s: %w", poolID, err)
	}

	out := make([]claim.Slot, 0, len(rows))
	for _, row := range rows {
		out = append(out, slotFromRow(row))
	}
	return out, nil
}

func (r *SlotRepository) SaveSlot(ctx context.Context, slot claim.Slot, expectedOwner string) (bool, error) {
	query, args, err := saveSlotQuery(slotToRow(slot), expectedOwner, r.now().UTC())
	if err != nil {
		return false, fmt.Errorf("build save slot query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("save slot pool=%s %s: %w", slot.PoolID, slot.Ref, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save slot rows affected: %w", err)
	}
	return n == 1, nil
}

func saveSlotQuery(row slotTableModel, expectedOwner string, updatedAt time.Time) (string, []any, error) {
	return qb.Update("pool_slots").
		Set("owner_id", row.OwnerID).
		Set("claimed_at", row.ClaimedAt).
		Set("status", row.Status).
		Set("updated_at", updatedAt).
		Where(
			qb.Eq("pool_public_id", row.PoolPublicID),
			qb.Eq("kind", row.Kind),
			qb.Eq("slot_index", row.SlotIndex),
			qb.Eq("owner_id", expectedOwner),
		).
		ToSQL()
}

func slotToRow(s claim.Slot) slotTableModel {
	return slotTableModel{
		PoolPublicID: s.PoolID,
		Kind:         string(s.Ref.Kind),
		SlotIndex:    s.Ref.Index(),
		RowIdx:       s.Ref.Row,
		ColIdx:       s.Ref.Col,
		Position:     s.Ref.Position,
		OwnerID:      s.OwnerID,
		ClaimedAt:    s.ClaimedAt,
		Status:       string(s.Status),
	}
}

func slotFromRow(row slotTableModel) claim.Slot {
	return claim.Slot{
		PoolID: row.PoolPublicID,
		Ref: claim.Ref{
			Kind:     claim.Kind(row.Kind),
			Row:      row.RowIdx,
			Col:      row.ColIdx,
			Position: row.Position,
		},
		OwnerID:   row.OwnerID,
		ClaimedAt: row.ClaimedAt,
		Status:    claim.Status(row.Status),
	}
}
