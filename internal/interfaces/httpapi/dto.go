package httpapi

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/scoreboard"
	"github.com/riskibarqy/office-pools/internal/domain/scoring"
	"github.com/riskibarqy/office-pools/internal/usecase"
)

// potValue accepts either a positive number or the "donations only" literal.
type potValue struct {
	pool.Pot
	set bool
}

func (p *potValue) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	p.set = true

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := sonic.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(s), pool.DonationsOnlyLiteral) {
			p.Pot = pool.Pot{DonationsOnly: true}
			return nil
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("pot must be a number or %q, got %q", pool.DonationsOnlyLiteral, s)
		}
		p.Pot = pool.Pot{Amount: amount}
		return nil
	}

	var amount float64
	if err := sonic.Unmarshal(trimmed, &amount); err != nil {
		return fmt.Errorf("pot must be a number or %q", pool.DonationsOnlyLiteral)
	}
	p.Pot = pool.Pot{Amount: amount}
	return nil
}

type createPoolRequest struct {
	Name       string                `json:"name" validate:"required,max=120"`
	Format     string                `json:"format" validate:"required,oneof=squares strip_cards pickem"`
	Pot        potValue              `json:"pot"`
	Payout     *pool.PayoutStructure `json:"payout" validate:"omitempty"`
	StripCount int                   `json:"strip_count" validate:"gte=0,lte=20"`
	Rules      *pool.PickemRules     `json:"rules" validate:"omitempty"`
}

type updatePayoutRequest struct {
	Pot    *potValue            `json:"pot"`
	Payout pool.PayoutStructure `json:"payout"`
}

type importMatchupsRequest struct {
	GameIDs []string `json:"game_ids" validate:"required,min=1,max=64,dive,required"`
	Week    int      `json:"week" validate:"gte=0,lte=30"`
}

type recordScoreRequest struct {
	Home      int  `json:"home" validate:"gte=0"`
	Away      int  `json:"away" validate:"gte=0"`
	Completed bool `json:"completed"`
}

type submitPickRequest struct {
	Side string `json:"side" validate:"required,oneof=home away"`
}

type potDTO struct {
	Amount        string `json:"amount,omitempty"`
	DonationsOnly bool   `json:"donationsOnly"`
}

type axisDTO struct {
	Rows []int `json:"rows"`
	Cols []int `json:"cols"`
}

type poolDTO struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	CommissionerID string               `json:"commissionerId"`
	Status         string               `json:"status"`
	Format         string               `json:"format"`
	Pot            potDTO               `json:"pot"`
	Payout         pool.PayoutStructure `json:"payout"`
	Axis           *axisDTO             `json:"axis,omitempty"`
	StripNumbers   []int                `json:"stripNumbers,omitempty"`
	StripCount     int                  `json:"stripCount,omitempty"`
	InviteCode     string               `json:"inviteCode"`
	Rules          *pool.PickemRules    `json:"rules,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	LockedAt       *time.Time           `json:"lockedAt,omitempty"`
	CompletedAt    *time.Time           `json:"completedAt,omitempty"`
}

type slotDTO struct {
	Kind      string     `json:"kind"`
	Row       *int       `json:"row,omitempty"`
	Col       *int       `json:"col,omitempty"`
	Position  *int       `json:"position,omitempty"`
	Status    string     `json:"status"`
	OwnerID   string     `json:"ownerId,omitempty"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
}

type scoreDTO struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type matchupDTO struct {
	ID        string              `json:"id"`
	PoolID    string              `json:"poolId"`
	GameID    string              `json:"gameId"`
	HomeTeam  string              `json:"homeTeam"`
	AwayTeam  string              `json:"awayTeam"`
	StartTime time.Time           `json:"startTime"`
	Status    string              `json:"status"`
	Week      int                 `json:"week,omitempty"`
	Favorite  string              `json:"favorite,omitempty"`
	Scores    map[string]scoreDTO `json:"scores,omitempty"`
	Picks     map[string]string   `json:"picks,omitempty"`
}

type payoutDTO struct {
	DonationsOnly bool              `json:"donationsOnly"`
	Total         string            `json:"total,omitempty"`
	Amounts       map[string]string `json:"amounts,omitempty"`
}

type scoreboardDTO struct {
	PoolID     string                 `json:"poolId"`
	Format     string                 `json:"format"`
	Week       int                    `json:"week"`
	MatchupID  string                 `json:"matchupId,omitempty"`
	Squares    []scoring.Winner       `json:"squares,omitempty"`
	Strips     []scoring.StripRanking `json:"strips,omitempty"`
	Pickem     *scoring.PickemResult  `json:"pickem,omitempty"`
	Payout     payoutDTO              `json:"payout"`
	ComputedAt time.Time              `json:"computedAt"`
}

type rescoreTaskDTO struct {
	PoolID     string `json:"poolId"`
	Format     string `json:"format"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

type rescoreDTO struct {
	PoolCount    int              `json:"poolCount"`
	WorkerCount  int              `json:"workerCount"`
	SuccessCount int              `json:"successCount"`
	SkippedCount int              `json:"skippedCount"`
	FailedCount  int              `json:"failedCount"`
	Tasks        []rescoreTaskDTO `json:"tasks"`
}

func poolToDTO(p pool.Pool) poolDTO {
	out := poolDTO{
		ID:             p.ID,
		Name:           p.Name,
		CommissionerID: p.CommissionerID,
		Status:         string(p.Status),
		Format:         string(p.Format),
		Pot:            potDTO{DonationsOnly: p.Pot.DonationsOnly},
		Payout:         p.Payout,
		StripNumbers:   p.StripNumbers,
		InviteCode:     p.InviteCode,
		CreatedAt:      p.CreatedAt,
		LockedAt:       p.LockedAt,
		CompletedAt:    p.CompletedAt,
	}
	if !p.Pot.DonationsOnly {
		out.Pot.Amount = p.Pot.String()
	}
	if p.Axis != nil {
		out.Axis = &axisDTO{Rows: p.Axis.Rows[:], Cols: p.Axis.Cols[:]}
	}
	switch p.Format {
	case pool.FormatStripCards:
		out.StripCount = p.StripCount
	case pool.FormatPickem:
		rules := p.Rules
		out.Rules = &rules
	}
	return out
}

func slotToDTO(s claim.Slot) slotDTO {
	out := slotDTO{
		Kind:      string(s.Ref.Kind),
		Status:    string(s.Status),
		OwnerID:   s.OwnerID,
		ClaimedAt: s.ClaimedAt,
	}
	if s.Ref.Kind == claim.KindGridCell {
		row, col := s.Ref.Row, s.Ref.Col
		out.Row, out.Col = &row, &col
	} else {
		position := s.Ref.Position
		out.Position = &position
	}
	return out
}

func matchupToDTO(m matchup.Matchup) matchupDTO {
	out := matchupDTO{
		ID:        m.ID,
		PoolID:    m.PoolID,
		GameID:    m.GameID,
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		StartTime: m.StartTime,
		Status:    string(m.Status),
		Week:      m.Week,
		Favorite:  string(m.Favorite),
	}
	if len(m.Scores) > 0 {
		out.Scores = make(map[string]scoreDTO, len(m.Scores))
		for period, score := range m.Scores {
			out.Scores[string(period)] = scoreDTO{Home: score.Home, Away: score.Away}
		}
	}
	if len(m.Picks) > 0 {
		out.Picks = make(map[string]string, len(m.Picks))
		for userID, side := range m.Picks {
			out.Picks[userID] = string(side)
		}
	}
	return out
}

func scoreboardToDTO(s scoreboard.Snapshot) scoreboardDTO {
	out := scoreboardDTO{
		PoolID:     s.PoolID,
		Format:     string(s.Format),
		Week:       s.Week,
		MatchupID:  s.MatchupID,
		Strips:     s.Strips,
		Pickem:     s.Pickem,
		Payout:     payoutDTO{DonationsOnly: s.Payout.DonationsOnly},
		ComputedAt: s.ComputedAt,
	}
	if s.Squares != nil {
		out.Squares = s.Squares.Winners
	}
	if !s.Payout.DonationsOnly {
		out.Payout.Total = s.Payout.Total.StringFixed(2)
		out.Payout.Amounts = make(map[string]string, len(s.Payout.Amounts))
		for period, amount := range s.Payout.Amounts {
			out.Payout.Amounts[string(period)] = amount.StringFixed(2)
		}
	}
	return out
}

func rescoreToDTO(r usecase.RescoreResult) rescoreDTO {
	out := rescoreDTO{
		PoolCount:    r.PoolCount,
		WorkerCount:  r.WorkerCount,
		SuccessCount: r.SuccessCount,
		SkippedCount: r.SkippedCount,
		FailedCount:  r.FailedCount,
		Tasks:        make([]rescoreTaskDTO, 0, len(r.Tasks)),
	}
	for _, task := range r.Tasks {
		out.Tasks = append(out.Tasks, rescoreTaskDTO{
			PoolID:     task.PoolID,
			Format:     string(task.Format),
			Status:     task.Status,
			Message:    task.Message,
			DurationMs: task.DurationMs,
		})
	}
	return out
}
