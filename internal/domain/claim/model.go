package claim

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindGridCell  Kind = "grid_cell"
	KindStripSlot Kind = "strip_slot"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusClaimed   Status = "claimed"
)

// Ref addresses one slot of a pool: Row/Col for grid cells, Position for strips.
type Ref struct {
	Kind     Kind
	Row      int
	Col      int
	Position int
}

func GridCell(row, col int) Ref {
	return Ref{Kind: KindGridCell, Row: row, Col: col}
}

func StripSlot(position int) Ref {
	return Ref{Kind: KindStripSlot, Position: position}
}

// Index orders slots inside a pool. Grid cells are row-major.
func (r Ref) Index() int {
	if r.Kind == KindGridCell {
		return r.Row*10 + r.Col
	}
	return r.Position
}

func (r Ref) String() string {
	if r.Kind == KindGridCell {
		return fmt.Sprintf("cell(%d,%d)", r.Row, r.Col)
	}
	return fmt.Sprintf("strip(%d)", r.Position)
}

// Validate checks r against a pool with slotCount strips or a 10x10 grid.
func (r Ref) Validate(slotCount int) error {
	switch r.Kind {
	case KindGridCell:
		if r.Row < 0 || r.Row > 9 || r.Col < 0 || r.Col > 9 {
			return fmt.Errorf("grid cell (%d,%d) out of range", r.Row, r.Col)
		}
	case KindStripSlot:
		if r.Position < 0 || r.Position >= slotCount {
			return fmt.Errorf("strip position %d out of range [0,%d)", r.Position, slotCount)
		}
	default:
		return fmt.Errorf("unknown slot kind %q", r.Kind)
	}
	return nil
}

// Slot is one claimable unit. OwnerID is set iff Status is claimed.
type Slot struct {
	PoolID    string
	Ref       Ref
	OwnerID   string
	ClaimedAt *time.Time
	Status    Status
}

func NewSlot(poolID string, ref Ref) Slot {
	return Slot{PoolID: poolID, Ref: ref, Status: StatusAvailable}
}

func (s Slot) Claimed() bool {
	return s.Status == StatusClaimed && s.OwnerID != ""
}

func (s Slot) ClaimedBy(userID string, at time.Time) Slot {
	at = at.UTC()
	s.OwnerID = userID
	s.ClaimedAt = &at
	s.Status = StatusClaimed
	return s
}

func (s Slot) Released() Slot {
	s.OwnerID = ""
	s.ClaimedAt = nil
	s.Status = StatusAvailable
	return s
}

// InitialSlots builds the empty slot set of a pool.
func InitialSlots(poolID string, kind Kind, count int) []Slot {
	if kind == KindGridCell {
		out := make([]Slot, 0, 100)
		for row := 0; row < 10; row++ {
			for col := 0; col < 10; col++ {
				out = append(out, NewSlot(poolID, GridCell(row, col)))
			}
		}
		return out
	}

	out := make([]Slot, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, NewSlot(poolID, StripSlot(i)))
	}
	return out
}
