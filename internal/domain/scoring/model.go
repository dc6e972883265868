package scoring

import (
	"errors"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
)

var (
	ErrNoMatchupsFound   = errors.New("no matchups found")
	ErrNoMatchupsForWeek = errors.New("no matchups for week")
	ErrAxisMissing       = errors.New("axis numbers not assigned")
)

// Winner is the squares result for one period. OwnerID is empty when the cell is unclaimed.
type Winner struct {
	Period    matchup.Period `json:"period"`
	Row       int            `json:"row"`
	Col       int            `json:"col"`
	HomeDigit int            `json:"home_digit"`
	AwayDigit int            `json:"away_digit"`
	OwnerID   string         `json:"owner_id,omitempty"`
	Score     matchup.Score  `json:"score"`
}

type SquaresResult struct {
	Winners []Winner `json:"winners"`
}

// WinnerFor returns the winner of period, if that period has a recorded score.
func (r SquaresResult) WinnerFor(period matchup.Period) (Winner, bool) {
	for _, w := range r.Winners {
		if w.Period == period {
			return w, true
		}
	}
	return Winner{}, false
}

type StripRanking struct {
	UserID  string `json:"user_id"`
	Claimed int    `json:"claimed"`
}

type PickemStanding struct {
	UserID           string `json:"user_id"`
	Points           int    `json:"points"`
	TiebreakerPoints int    `json:"tiebreaker_points"`
	Correct          int    `json:"correct"`
	Upsets           int    `json:"upsets"`
}

// PickemResult lists standings and the completed matchups that could not be scored (ties).
type PickemResult struct {
	Week       int              `json:"week,omitempty"`
	Standings  []PickemStanding `json:"standings"`
	Scored     int              `json:"scored"`
	Unresolved []string         `json:"unresolved,omitempty"`
}

func (r PickemResult) StandingFor(userID string) (PickemStanding, bool) {
	for _, s := range r.Standings {
		if s.UserID == userID {
			return s, true
		}
	}
	return PickemStanding{}, false
}
