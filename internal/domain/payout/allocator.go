package payout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
)

var (
	ErrInvalidPot       = errors.New("invalid pot")
	ErrInvalidStructure = errors.New("invalid payout structure")
)

const (
	// SumTolerance absorbs floating point and rounding error in user-entered fractions.
	SumTolerance   = 0.01
	sumEpsilon     = 1e-9
	currencyPlaces = 2
)

// Allocation is the pot split per period. Amounts is nil for donations-only pots.
type Allocation struct {
	DonationsOnly bool                               `json:"donations_only"`
	Total         decimal.Decimal                    `json:"total"`
	Amounts       map[matchup.Period]decimal.Decimal `json:"amounts,omitempty"`
}

// Amount returns the amount for period; ok is false when no pot exists to split.
func (a Allocation) Amount(period matchup.Period) (decimal.Decimal, bool) {
	if a.DonationsOnly || a.Amounts == nil {
		return decimal.Decimal{}, false
	}
	v, ok := a.Amounts[period]
	return v, ok
}

// Sum adds every period amount.
func (a Allocation) Sum() decimal.Decimal {
	out := decimal.Zero
	for _, v := range a.Amounts {
		out = out.Add(v)
	}
	return out
}

func ValidateStructure(structure pool.PayoutStructure) error {
	for period, fraction := range fractions(structure) {
		if fraction < 0 || fraction > 1 {
			return fmt.Errorf("%w: %s fraction %.4f outside [0,1]", ErrInvalidStructure, period, fraction)
		}
	}

	sum := decimal.NewFromFloat(structure.Sum())
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(decimal.NewFromFloat(SumTolerance + sumEpsilon)) {
		return fmt.Errorf("%w: fractions sum to %s, want 1.0", ErrInvalidStructure, sum.StringFixed(4))
	}
	return nil
}

// Allocate splits pot across the four periods, rounding each amount to cents.
func Allocate(pot pool.Pot, structure pool.PayoutStructure) (Allocation, error) {
	if !pot.DonationsOnly && pot.Amount <= 0 {
		return Allocation{}, fmt.Errorf("%w: pot must be positive, got %.2f", ErrInvalidPot, pot.Amount)
	}
	if err := ValidateStructure(structure); err != nil {
		return Allocation{}, err
	}
	if pot.DonationsOnly {
		return Allocation{DonationsOnly: true}, nil
	}

	total := decimal.NewFromFloat(pot.Amount)
	amounts := make(map[matchup.Period]decimal.Decimal, len(matchup.Periods))
	for period, fraction := range fractions(structure) {
		amounts[period] = total.Mul(decimal.NewFromFloat(fraction)).Round(currencyPlaces)
	}

	return Allocation{
		Total:   total.Round(currencyPlaces),
		Amounts: amounts,
	}, nil
}

func fractions(s pool.PayoutStructure) map[matchup.Period]float64 {
	return map[matchup.Period]float64{
		matchup.PeriodQ1:    s.Q1,
		matchup.PeriodQ2:    s.Q2,
		matchup.PeriodQ3:    s.Q3,
		matchup.PeriodFinal: s.Final,
	}
}
