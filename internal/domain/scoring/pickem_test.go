package scoring

import (
	"errors"
	"testing"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
)

func completed(id string, week int, home, away int, favorite matchup.Side, picks map[string]matchup.Side) matchup.Matchup {
	return matchup.Matchup{
		ID:       id,
		PoolID:   "pool-3",
		Status:   matchup.StatusCompleted,
		Week:     week,
		Favorite: favorite,
		Picks:    picks,
		Scores: map[matchup.Period]matchup.Score{
			matchup.PeriodFinal: {Home: home, Away: away},
		},
	}
}

func TestScorePickem_UpsetBonus(t *testing.T) {
	m := completed("m-1", 1, 10, 20, matchup.SideHome, map[string]matchup.Side{
		"underdog-fan": matchup.SideAway,
		"chalk":        matchup.SideHome,
	})
	rules := pool.PickemRules{IncludeUpsets: true, UpsetBonus: 2}

	got, err := ScorePickemOverall([]matchup.Matchup{m}, rules)
	if err != nil {
		t.Fatalf("score pickem: %v", err)
	}

	fan, _ := got.StandingFor("underdog-fan")
	if fan.Points != 3 || fan.Upsets != 1 || fan.Correct != 1 {
		t.Fatalf("unexpected underdog standing: %+v", fan)
	}
	chalk, ok := got.StandingFor("chalk")
	if !ok || chalk.Points != 0 {
		t.Fatalf("unexpected favorite picker standing: %+v ok=%v", chalk, ok)
	}
	if got.Standings[0].UserID != "underdog-fan" {
		t.Fatalf("expected underdog fan to lead: %+v", got.Standings)
	}
}

func TestScorePickem_UpsetsDisabled(t *testing.T) {
	m := completed("m-1", 1, 10, 20, matchup.SideHome, map[string]matchup.Side{"u": matchup.SideAway})

	got := ScorePickem([]matchup.Matchup{m}, pool.PickemRules{UpsetBonus: 2})
	if st, _ := got.StandingFor("u"); st.Points != 1 || st.Upsets != 0 {
		t.Fatalf("upset bonus must only apply when enabled: %+v", st)
	}
}

func TestScorePickem_TieIsUnresolved(t *testing.T) {
	tie := completed("m-tie", 1, 17, 17, "", map[string]matchup.Side{"u": matchup.SideHome})
	pending := matchup.Matchup{ID: "m-pending", Status: matchup.StatusPending, Picks: map[string]matchup.Side{"u": matchup.SideHome}}

	got := ScorePickem([]matchup.Matchup{tie, pending}, pool.DefaultPickemRules())
	if got.Scored != 0 {
		t.Fatalf("unexpected scored count: %d", got.Scored)
	}
	if len(got.Unresolved) != 1 || got.Unresolved[0] != "m-tie" {
		t.Fatalf("expected tie to be unresolved: %+v", got.Unresolved)
	}
	if len(got.Standings) != 0 {
		t.Fatalf("a tie awards nothing: %+v", got.Standings)
	}
}

func TestScorePickem_TiebreakerAccumulatesCorrectPicks(t *testing.T) {
	matchups := []matchup.Matchup{
		completed("m-1", 1, 24, 17, "", map[string]matchup.Side{"amy": matchup.SideHome, "bob": matchup.SideHome}),
		completed("m-2", 1, 3, 31, "", map[string]matchup.Side{"amy": matchup.SideHome, "bob": matchup.SideAway}),
		completed("m-3", 1, 28, 10, "", map[string]matchup.Side{"amy": matchup.SideHome, "bob": matchup.SideAway}),
	}
	rules := pool.PickemRules{UseTiebreaker: true}

	got := ScorePickem(matchups, rules)
	amy, _ := got.StandingFor("amy")
	bob, _ := got.StandingFor("bob")
	if amy.Points != 2 || amy.TiebreakerPoints != 41+38 {
		t.Fatalf("unexpected amy standing: %+v", amy)
	}
	if bob.Points != 2 || bob.TiebreakerPoints != 41+34 {
		t.Fatalf("unexpected bob standing: %+v", bob)
	}
	if got.Standings[0].UserID != "amy" {
		t.Fatalf("tiebreaker points must order equal points: %+v", got.Standings)
	}
}

func TestScorePickemWeek(t *testing.T) {
	matchups := []matchup.Matchup{
		completed("m-1", 1, 21, 14, "", map[string]matchup.Side{"u": matchup.SideHome}),
		completed("m-2", 2, 21, 14, "", map[string]matchup.Side{"u": matchup.SideAway}),
	}

	week2, err := ScorePickemWeek(matchups, 2, pool.DefaultPickemRules())
	if err != nil {
		t.Fatalf("score week: %v", err)
	}
	if st, _ := week2.StandingFor("u"); st.Points != 0 || week2.Week != 2 {
		t.Fatalf("unexpected week 2 result: %+v", week2)
	}

	if _, err := ScorePickemWeek(matchups, 3, pool.DefaultPickemRules()); !errors.Is(err, ErrNoMatchupsForWeek) {
		t.Fatalf("expected ErrNoMatchupsForWeek, got %v", err)
	}
	if _, err := ScorePickemOverall(nil, pool.DefaultPickemRules()); !errors.Is(err, ErrNoMatchupsFound) {
		t.Fatalf("expected ErrNoMatchupsFound, got %v", err)
	}
}
