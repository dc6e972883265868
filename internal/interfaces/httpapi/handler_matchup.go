package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/usecase"
)

func (h *Handler) ListMatchups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ListMatchups")
	defer span.End()

	poolID := r.PathValue("poolID")
	items, err := h.matchupService.ListByPool(ctx, poolID)
	if err != nil {
		h.logger.WarnContext(ctx, "list matchups failed", "pool_id", poolID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]matchupDTO, 0, len(items))
	for _, m := range items {
		out = append(out, matchupToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ImportMatchups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ImportMatchups")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req importMatchupsRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	poolID := r.PathValue("poolID")
	items, err := h.matchupService.ImportMatchups(ctx, usecase.ImportMatchupsInput{
		PoolID:  poolID,
		GameIDs: req.GameIDs,
		Week:    req.Week,
		Actor:   principal,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "import matchups failed", "pool_id", poolID, "game_count", len(req.GameIDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]matchupDTO, 0, len(items))
	for _, m := range items {
		out = append(out, matchupToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) RecordScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "RecordScore")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	period, err := matchup.ParsePeriod(r.PathValue("period"))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	var req recordScoreRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchupID := r.PathValue("matchupID")
	updated, err := h.matchupService.RecordScore(ctx, usecase.RecordScoreInput{
		MatchupID: matchupID,
		Period:    period,
		Score:     matchup.Score{Home: req.Home, Away: req.Away},
		Completed: req.Completed,
		Actor:     principal,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record score failed", "matchup_id", matchupID, "period", period, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchupToDTO(updated))
}

func (h *Handler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "SubmitPick")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitPickRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	side, err := matchup.ParseSide(req.Side)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	matchupID := r.PathValue("matchupID")
	updated, err := h.matchupService.SubmitPick(ctx, usecase.SubmitPickInput{
		MatchupID: matchupID,
		Side:      side,
		Actor:     principal,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit pick failed", "matchup_id", matchupID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchupToDTO(updated))
}
