package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var poolColumns = []string{
	"public_id",
	"name",
	"commissioner_id",
	"status",
	"format",
	"pot_amount",
	"donations_only",
	"payout_q1",
	"payout_q2",
	"payout_q3",
	"payout_final",
	"strip_count",
	"strip_numbers",
	"axis_numbers",
	"invite_code",
	"pickem_rules",
	"created_at",
	"updated_at",
	"locked_at",
	"completed_at",
	"version",
}

type poolTableModel struct {
	PublicID       string          `db:"public_id"`
	Name           string          `db:"name"`
	CommissionerID string          `db:"commissioner_id"`
	Status         string          `db:"status"`
	Format         string          `db:"format"`
	PotAmount      decimal.Decimal `db:"pot_amount"`
	DonationsOnly  bool            `db:"donations_only"`
	PayoutQ1       float64         `db:"payout_q1"`
	PayoutQ2       float64         `db:"payout_q2"`
	PayoutQ3       float64         `db:"payout_q3"`
	PayoutFinal    float64         `db:"payout_final"`
	StripCount     int             `db:"strip_count"`
	StripNumbers   pq.Int64Array   `db:"strip_numbers"`
	AxisNumbers    sql.NullString  `db:"axis_numbers"`
	InviteCode     string          `db:"invite_code"`
	PickemRules    string          `db:"pickem_rules"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
	LockedAt       *time.Time      `db:"locked_at"`
	CompletedAt    *time.Time      `db:"completed_at"`
	Version        int64           `db:"version"`
}
