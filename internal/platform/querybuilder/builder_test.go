package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("public_id", "status").
		From("pools").
		Where(Eq("status", "locked"), IsNull("deleted_at")).
		OrderBy("public_id").
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "SELECT public_id, status FROM pools WHERE status = $1 AND deleted_at IS NULL ORDER BY public_id", query)
	assert.Equal(t, []any{"locked"}, args)
}

func TestSelectBuilder_Limit(t *testing.T) {
	query, args, err := Select("1").From("pools").Where(Eq("invite_code", "K7Q2ZP")).Limit(1).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM pools WHERE invite_code = $1 LIMIT 1", query)
	assert.Equal(t, []any{"K7Q2ZP"}, args)

	query, _, err = Select("public_id").From("pools").OrderBy("created_at DESC").Limit(0).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT public_id FROM pools ORDER BY created_at DESC", query)
}

func TestSelectBuilder_InCondition(t *testing.T) {
	query, args, err := Select("user_id").
		From("matchup_picks").
		Where(In("matchup_public_id", []any{"m1", "m2"}), Eq("side", "home")).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT user_id FROM matchup_picks WHERE matchup_public_id IN ($1, $2) AND side = $3", query)
	assert.Equal(t, []any{"m1", "m2", "home"}, args)

	query, args, err = Select("user_id").From("matchup_picks").Where(In("matchup_public_id", nil)).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT user_id FROM matchup_picks WHERE 1=0", query)
	assert.Empty(t, args)
}

func TestInsertBuilder_MultiRow(t *testing.T) {
	query, args, err := InsertInto("pool_slots").
		Columns("pool_public_id", "slot_index").
		Values("p1", 0).
		Values("p1", 1).
		Suffix("ON CONFLICT (pool_public_id, slot_index) DO NOTHING").
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO pool_slots (pool_public_id, slot_index) VALUES ($1, $2), ($3, $4) ON CONFLICT (pool_public_id, slot_index) DO NOTHING", query)
	assert.Equal(t, []any{"p1", 0, "p1", 1}, args)
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("pool_slots").Columns("pool_public_id", "slot_index").Values("p1").ToSQL()
	require.Error(t, err)
}

func TestUpdateBuilder_ConditionalWrite(t *testing.T) {
	query, args, err := Update("pool_slots").
		Set("owner_id", "user-a").
		Set("status", "claimed").
		Where(Eq("pool_public_id", "p1"), Eq("owner_id", "")).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE pool_slots SET owner_id = $1, status = $2 WHERE pool_public_id = $3 AND owner_id = $4", query)
	assert.Equal(t, []any{"user-a", "claimed", "p1", ""}, args)
}

func TestUpdateBuilder_RequiresWhere(t *testing.T) {
	_, _, err := Update("pools").Set("status", "locked").ToSQL()
	require.Error(t, err)
}

func TestInsertModel(t *testing.T) {
	type row struct {
		PublicID string `db:"public_id"`
		Week     int    `db:"week,omitempty"`
		Skipped  string `db:"-"`
		internal string
	}

	query, args, err := InsertModel("scoreboard_snapshots", &row{PublicID: "p1", Week: 2, internal: "x"}, "")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO scoreboard_snapshots (public_id, week) VALUES ($1, $2)", query)
	assert.Equal(t, []any{"p1", 2}, args)

	_, _, err = InsertModel("pools", 42, "")
	require.Error(t, err)
}
