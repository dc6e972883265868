package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/office-pools/internal/domain/scoreboard"
	"github.com/riskibarqy/office-pools/internal/usecase"
)

func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "GetScoreboard")
	defer span.End()

	week := scoreboard.OverallWeek
	if raw := strings.TrimSpace(r.URL.Query().Get("week")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(ctx, w, fmt.Errorf("%w: week must be a non-negative integer, got %q", usecase.ErrInvalidInput, raw))
			return
		}
		week = parsed
	}

	poolID := r.PathValue("poolID")
	snapshot, err := h.scoreboardService.Compute(ctx, poolID, week)
	if err != nil {
		h.logger.WarnContext(ctx, "compute scoreboard failed", "pool_id", poolID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoreboardToDTO(snapshot))
}

func (h *Handler) RunRescoreJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "RunRescoreJob")
	defer span.End()

	if h.rescoreService == nil {
		writeError(ctx, w, fmt.Errorf("%w: rescore service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.rescoreService.RescoreAll(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run rescore job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rescoreToDTO(result))
}
