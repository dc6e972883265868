package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/usecase"
)

func (h *Handler) CreatePool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "CreatePool")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createPoolRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if !req.Pot.set {
		writeError(ctx, w, fmt.Errorf("%w: pot is required", usecase.ErrInvalidInput))
		return
	}

	created, err := h.poolService.CreatePool(ctx, usecase.CreatePoolInput{
		Name:       req.Name,
		Format:     pool.Format(req.Format),
		Pot:        req.Pot.Pot,
		Payout:     req.Payout,
		StripCount: req.StripCount,
		Rules:      req.Rules,
		Actor:      principal,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create pool failed", "user_id", principal.UserID, "format", req.Format, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, poolToDTO(created))
}

func (h *Handler) GetPool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "GetPool")
	defer span.End()

	poolID := r.PathValue("poolID")
	found, err := h.poolService.GetPool(ctx, poolID)
	if err != nil {
		h.logger.WarnContext(ctx, "get pool failed", "pool_id", poolID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, poolToDTO(found))
}

func (h *Handler) GetPoolByInviteCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "GetPoolByInviteCode")
	defer span.End()

	found, err := h.poolService.GetPoolByInviteCode(ctx, r.PathValue("code"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, poolToDTO(found))
}

func (h *Handler) LockPool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "LockPool")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	poolID := r.PathValue("poolID")
	locked, err := h.poolService.Lock(ctx, poolID, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "lock pool failed", "pool_id", poolID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, poolToDTO(locked))
}

func (h *Handler) CompletePool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "CompletePool")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	poolID := r.PathValue("poolID")
	completed, err := h.poolService.Complete(ctx, poolID, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "complete pool failed", "pool_id", poolID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, poolToDTO(completed))
}

func (h *Handler) UpdatePayout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "UpdatePayout")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updatePayoutRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.UpdatePayoutInput{
		PoolID:    r.PathValue("poolID"),
		Structure: req.Payout,
		Actor:     principal,
	}
	if req.Pot != nil && req.Pot.set {
		pot := req.Pot.Pot
		input.Pot = &pot
	}

	updated, err := h.poolService.UpdatePayout(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update payout failed", "pool_id", input.PoolID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, poolToDTO(updated))
}
