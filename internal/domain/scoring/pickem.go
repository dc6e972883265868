package scoring

import (
	"fmt"
	"sort"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
)

// ScorePickem scores every completed matchup with a final score. A tied final is reported in
// Unresolved and awards nothing.
func ScorePickem(matchups []matchup.Matchup, rules pool.PickemRules) PickemResult {
	standings := make(map[string]*PickemStanding)
	result := PickemResult{}

	for _, m := range matchups {
		if !m.Completed() {
			continue
		}
		final, ok := m.FinalScore()
		if !ok {
			continue
		}

		winner, decided := final.Winner()
		if !decided {
			result.Unresolved = append(result.Unresolved, m.ID)
			continue
		}
		result.Scored++

		upset := rules.IncludeUpsets && m.Favorite != "" && m.Favorite != winner
		for userID, side := range m.Picks {
			st, exists := standings[userID]
			if !exists {
				st = &PickemStanding{UserID: userID}
				standings[userID] = st
			}
			if side != winner {
				continue
			}

			st.Correct++
			st.Points++
			if upset {
				st.Upsets++
				st.Points += rules.UpsetBonus
			}
			if rules.UseTiebreaker {
				st.TiebreakerPoints += final.Total()
			}
		}
	}

	result.Standings = make([]PickemStanding, 0, len(standings))
	for _, st := range standings {
		result.Standings = append(result.Standings, *st)
	}
	sort.Slice(result.Standings, func(i, j int) bool {
		a, b := result.Standings[i], result.Standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if rules.UseTiebreaker && a.TiebreakerPoints != b.TiebreakerPoints {
			return a.TiebreakerPoints > b.TiebreakerPoints
		}
		return a.UserID < b.UserID
	})

	return result
}

// ScorePickemOverall scores every matchup of the pool.
func ScorePickemOverall(matchups []matchup.Matchup, rules pool.PickemRules) (PickemResult, error) {
	if len(matchups) == 0 {
		return PickemResult{}, ErrNoMatchupsFound
	}
	return ScorePickem(matchups, rules), nil
}

// ScorePickemWeek scores only the matchups of week.
func ScorePickemWeek(matchups []matchup.Matchup, week int, rules pool.PickemRules) (PickemResult, error) {
	filtered := make([]matchup.Matchup, 0, len(matchups))
	for _, m := range matchups {
		if m.Week == week {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		return PickemResult{}, fmt.Errorf("%w: week=%d", ErrNoMatchupsForWeek, week)
	}

	out := ScorePickem(filtered, rules)
	out.Week = week
	return out, nil
}
