package httpapi

import (
	"net/http"

	"github.com/riskibarqy/office-pools/internal/domain/claim"
	"github.com/riskibarqy/office-pools/internal/usecase"
)

func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ListSlots")
	defer span.End()

	poolID := r.PathValue("poolID")
	slots, err := h.claimService.ListSlots(ctx, poolID)
	if err != nil {
		h.logger.WarnContext(ctx, "list slots failed", "pool_id", poolID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotToDTO(s))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ClaimCell(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ClaimCell")
	defer span.End()

	ref, err := cellRef(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	h.claimSlot(w, r.WithContext(ctx), ref)
}

func (h *Handler) ReleaseCell(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ReleaseCell")
	defer span.End()

	ref, err := cellRef(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	h.releaseSlot(w, r.WithContext(ctx), ref)
}

func (h *Handler) ClaimStrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ClaimStrip")
	defer span.End()

	position, err := pathInt(r, "position")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	h.claimSlot(w, r.WithContext(ctx), claim.StripSlot(position))
}

func (h *Handler) ReleaseStrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ReleaseStrip")
	defer span.End()

	position, err := pathInt(r, "position")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	h.releaseSlot(w, r.WithContext(ctx), claim.StripSlot(position))
}

func (h *Handler) claimSlot(w http.ResponseWriter, r *http.Request, ref claim.Ref) {
	ctx := r.Context()
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	poolID := r.PathValue("poolID")
	slot, err := h.claimService.Claim(ctx, usecase.SlotInput{PoolID: poolID, Ref: ref, Actor: principal})
	if err != nil {
		h.logger.WarnContext(ctx, "claim slot failed", "pool_id", poolID, "slot", ref.String(), "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, slotToDTO(slot))
}

func (h *Handler) releaseSlot(w http.ResponseWriter, r *http.Request, ref claim.Ref) {
	ctx := r.Context()
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	poolID := r.PathValue("poolID")
	slot, err := h.claimService.Release(ctx, usecase.SlotInput{PoolID: poolID, Ref: ref, Actor: principal})
	if err != nil {
		h.logger.WarnContext(ctx, "release slot failed", "pool_id", poolID, "slot", ref.String(), "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, slotToDTO(slot))
}

func cellRef(r *http.Request) (claim.Ref, error) {
	row, err := pathInt(r, "row")
	if err != nil {
		return claim.Ref{}, err
	}
	col, err := pathInt(r, "col")
	if err != nil {
		return claim.Ref{}, err
	}
	return claim.GridCell(row, col), nil
}
