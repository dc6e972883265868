package matchup

import (
	"fmt"
	"strings"
	"time"
)

type Period string

const (
	PeriodQ1    Period = "q1"
	PeriodQ2    Period = "q2"
	PeriodQ3    Period = "q3"
	PeriodFinal Period = "final"
)

// Periods lists scoring periods in game order.
var Periods = []Period{PeriodQ1, PeriodQ2, PeriodQ3, PeriodFinal}

func ParsePeriod(v string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", v)
}

type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

func ParseSide(v string) (Side, error) {
	switch s := Side(strings.ToLower(strings.TrimSpace(v))); s {
	case SideHome, SideAway:
		return s, nil
	default:
		return "", fmt.Errorf("unknown side %q", v)
	}
}

func (s Side) Opposite() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Score is the cumulative score at the end of a period.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s Score) Validate() error {
	if s.Home < 0 || s.Away < 0 {
		return fmt.Errorf("scores must be non-negative, got %d-%d", s.Home, s.Away)
	}
	return nil
}

func (s Score) Total() int {
	return s.Home + s.Away
}

// Winner returns the strictly higher side; ok is false on a tie.
func (s Score) Winner() (Side, bool) {
	switch {
	case s.Home > s.Away:
		return SideHome, true
	case s.Away > s.Home:
		return SideAway, true
	default:
		return "", false
	}
}

// Matchup is one game tracked by a pool.
type Matchup struct {
	ID        string
	PoolID    string
	GameID    string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	Status    Status
	Scores    map[Period]Score
	Favorite  Side
	Picks     map[string]Side
	Week      int
	UpdatedAt time.Time
}

func (m Matchup) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("matchup id is required")
	}
	if strings.TrimSpace(m.PoolID) == "" {
		return fmt.Errorf("matchup pool id is required")
	}
	if strings.TrimSpace(m.HomeTeam) == "" || strings.TrimSpace(m.AwayTeam) == "" {
		return fmt.Errorf("matchup teams are required")
	}
	if m.Week < 0 {
		return fmt.Errorf("matchup week must be non-negative")
	}
	if m.Favorite != "" && m.Favorite != SideHome && m.Favorite != SideAway {
		return fmt.Errorf("unknown favorite side %q", m.Favorite)
	}
	return nil
}

// FinalScore is set once the final period has been recorded.
func (m Matchup) FinalScore() (Score, bool) {
	s, ok := m.Scores[PeriodFinal]
	return s, ok
}

func (m Matchup) Completed() bool {
	return m.Status == StatusCompleted
}
