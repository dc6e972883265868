package pool

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusLocked    Status = "locked"
	StatusCompleted Status = "completed"
)

type Format string

const (
	FormatSquares    Format = "squares"
	FormatStripCards Format = "strip_cards"
	FormatPickem     Format = "pickem"
)

var AllFormats = map[Format]struct{}{
	FormatSquares:    {},
	FormatStripCards: {},
	FormatPickem:     {},
}

const (
	GridSize          = 10
	DefaultStripCount = 10
	DefaultUpsetBonus = 2
)

// DonationsOnlyLiteral is the wire form of a pot with no monetary amount.
const DonationsOnlyLiteral = "donations only"

// Pot is either a positive amount or donations only. The zero value is neither.
type Pot struct {
	Amount        float64 `json:"amount,omitempty"`
	DonationsOnly bool    `json:"donations_only,omitempty"`
}

func (p Pot) String() string {
	if p.DonationsOnly {
		return DonationsOnlyLiteral
	}
	return fmt.Sprintf("%.2f", p.Amount)
}

// PayoutStructure holds the fraction of the pot paid per scoring period.
type PayoutStructure struct {
	Q1    float64 `json:"q1" validate:"gte=0,lte=1"`
	Q2    float64 `json:"q2" validate:"gte=0,lte=1"`
	Q3    float64 `json:"q3" validate:"gte=0,lte=1"`
	Final float64 `json:"final" validate:"gte=0,lte=1"`
}

func (p PayoutStructure) Sum() float64 {
	return p.Q1 + p.Q2 + p.Q3 + p.Final
}

func DefaultPayoutStructure() PayoutStructure {
	return PayoutStructure{Q1: 0.25, Q2: 0.25, Q3: 0.25, Final: 0.25}
}

// AxisNumbers maps grid row/column indexes to score digits.
type AxisNumbers struct {
	Rows [GridSize]int `json:"rows"`
	Cols [GridSize]int `json:"cols"`
}

// Validate checks that both axes are permutations of 0..9.
func (a AxisNumbers) Validate() error {
	for name, axis := range map[string][GridSize]int{"rows": a.Rows, "cols": a.Cols} {
		var seen [GridSize]bool
		for _, d := range axis {
			if d < 0 || d >= GridSize || seen[d] {
				return fmt.Errorf("axis %s is not a permutation of 0..9: %v", name, axis)
			}
			seen[d] = true
		}
	}
	return nil
}

type PickemRules struct {
	IncludeUpsets bool `json:"include_upsets"`
	UpsetBonus    int  `json:"upset_bonus" validate:"gte=0,lte=100"`
	UseTiebreaker bool `json:"use_tiebreaker"`
}

func DefaultPickemRules() PickemRules {
	return PickemRules{UpsetBonus: DefaultUpsetBonus}
}

// Pool is a group wager created by a commissioner. Pools are never deleted, only completed.
type Pool struct {
	ID             string
	Name           string
	CommissionerID string
	Status         Status
	Format         Format
	Pot            Pot
	Payout         PayoutStructure
	Axis           *AxisNumbers
	StripNumbers   []int
	StripCount     int
	InviteCode     string
	Rules          PickemRules
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LockedAt       *time.Time
	CompletedAt    *time.Time
	// Version increments on every stored update and guards concurrent writers.
	Version int64
}

func (p Pool) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("pool id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pool name is required")
	}
	if strings.TrimSpace(p.CommissionerID) == "" {
		return fmt.Errorf("pool commissioner is required")
	}
	if _, ok := AllFormats[p.Format]; !ok {
		return fmt.Errorf("unknown pool format %q", p.Format)
	}
	if !p.Pot.DonationsOnly && p.Pot.Amount <= 0 {
		return fmt.Errorf("pool pot must be positive or donations only")
	}
	if p.Format == FormatStripCards && (p.StripCount < 1 || p.StripCount > 20) {
		return fmt.Errorf("strip count must be in [1,20], got %d", p.StripCount)
	}

	return nil
}

// SlotCount is the number of claimable slots the pool format exposes.
func (p Pool) SlotCount() int {
	switch p.Format {
	case FormatSquares:
		return GridSize * GridSize
	case FormatStripCards:
		return p.StripCount
	default:
		return 0
	}
}
