package pool

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{name: "open to locked", from: StatusOpen, to: StatusLocked},
		{name: "locked to completed", from: StatusLocked, to: StatusCompleted},
		{name: "skip lock", from: StatusOpen, to: StatusCompleted, wantErr: true},
		{name: "backwards", from: StatusLocked, to: StatusOpen, wantErr: true},
		{name: "completed is terminal", from: StatusCompleted, to: StatusLocked, wantErr: true},
		{name: "self transition", from: StatusLocked, to: StatusLocked, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Transition(tc.from, tc.to)
			if tc.wantErr && !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPool_NeedsNumbers(t *testing.T) {
	squares := Pool{Format: FormatSquares}
	if !squares.NeedsNumbers() {
		t.Fatalf("squares pool without axis must need numbers")
	}
	squares.Axis = &AxisNumbers{}
	if squares.NeedsNumbers() {
		t.Fatalf("squares pool with axis must not need numbers")
	}

	strip := Pool{Format: FormatStripCards, StripCount: 3}
	if !strip.NeedsNumbers() {
		t.Fatalf("strip pool without numbers must need numbers")
	}
	strip.StripNumbers = []int{1, 2, 3}
	if strip.NeedsNumbers() {
		t.Fatalf("strip pool with numbers must not need numbers")
	}

	if (Pool{Format: FormatPickem}).NeedsNumbers() {
		t.Fatalf("pickem pools never get numbers")
	}
}

func TestPool_Validate(t *testing.T) {
	valid := Pool{
		ID:             "pool-1",
		Name:           "Office Super Bowl",
		CommissionerID: "u-1",
		Format:         FormatSquares,
		Pot:            Pot{Amount: 100},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noPot := valid
	noPot.Pot = Pot{}
	if err := noPot.Validate(); err == nil {
		t.Fatalf("expected zero pot to be rejected")
	}

	donations := valid
	donations.Pot = Pot{DonationsOnly: true}
	if err := donations.Validate(); err != nil {
		t.Fatalf("donations only pot must be valid: %v", err)
	}

	strips := valid
	strips.Format = FormatStripCards
	strips.StripCount = 21
	if err := strips.Validate(); err == nil {
		t.Fatalf("expected strip count 21 to be rejected")
	}
}
