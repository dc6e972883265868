package scoreboard

import (
	"time"

	"github.com/riskibarqy/office-pools/internal/domain/payout"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/scoring"
)

// OverallWeek marks a snapshot computed across every week.
const OverallWeek = 0

// Snapshot is the derived scoreboard of a pool. Exactly one of Squares, Strips or Pickem is set,
// matching Format.
type Snapshot struct {
	PoolID     string                 `json:"pool_id"`
	Format     pool.Format            `json:"format"`
	Week       int                    `json:"week"`
	Squares    *scoring.SquaresResult `json:"squares,omitempty"`
	Strips     []scoring.StripRanking `json:"strips,omitempty"`
	Pickem     *scoring.PickemResult  `json:"pickem,omitempty"`
	Payout     payout.Allocation      `json:"payout"`
	MatchupID  string                 `json:"matchup_id,omitempty"`
	ComputedAt time.Time              `json:"computed_at"`
}
