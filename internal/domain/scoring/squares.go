package scoring

import (
	"github.com/riskibarqy/office-pools/internal/domain/claim"
	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
)

func lastDigit(v int) int {
	if v < 0 {
		v = -v
	}
	return v % 10
}

// SquaresWinners finds, for every period with a recorded score, the cell whose row digit matches
// the home score's last digit and whose column digit matches the away score's last digit.
func SquaresWinners(axis *pool.AxisNumbers, scores map[matchup.Period]matchup.Score, slots []claim.Slot) (SquaresResult, error) {
	if axis == nil {
		return SquaresResult{}, ErrAxisMissing
	}
	if err := axis.Validate(); err != nil {
		return SquaresResult{}, err
	}

	rowOf := indexOfDigit(axis.Rows)
	colOf := indexOfDigit(axis.Cols)
	owners := make(map[[2]int]string, len(slots))
	for _, s := range slots {
		if s.Ref.Kind == claim.KindGridCell && s.Claimed() {
			owners[[2]int{s.Ref.Row, s.Ref.Col}] = s.OwnerID
		}
	}

	out := SquaresResult{Winners: make([]Winner, 0, len(matchup.Periods))}
	for _, period := range matchup.Periods {
		score, ok := scores[period]
		if !ok {
			continue
		}
		homeDigit := lastDigit(score.Home)
		awayDigit := lastDigit(score.Away)
		row, col := rowOf[homeDigit], colOf[awayDigit]
		out.Winners = append(out.Winners, Winner{
			Period:    period,
			Row:       row,
			Col:       col,
			HomeDigit: homeDigit,
			AwayDigit: awayDigit,
			OwnerID:   owners[[2]int{row, col}],
			Score:     score,
		})
	}

	return out, nil
}

func indexOfDigit(axis [pool.GridSize]int) [pool.GridSize]int {
	var out [pool.GridSize]int
	for i, digit := range axis {
		out[digit] = i
	}
	return out
}
