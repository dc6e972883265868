package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/office-pools/internal/domain/user"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/usecase"
)

type Handler struct {
	poolService       *usecase.PoolService
	claimService      *usecase.ClaimService
	matchupService    *usecase.MatchupService
	scoreboardService *usecase.ScoreboardService
	rescoreService    *usecase.RescoreService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	poolService *usecase.PoolService,
	claimService *usecase.ClaimService,
	matchupService *usecase.MatchupService,
	scoreboardService *usecase.ScoreboardService,
	rescoreService *usecase.RescoreService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		poolService:       poolService,
		claimService:      claimService,
		matchupService:    matchupService,
		scoreboardService: scoreboardService,
		rescoreService:    rescoreService,
		logger:            logger,
		validator:         validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest reads a strict JSON body into dst and validates it.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated)
	}
	return principal, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", usecase.ErrInvalidInput, name, raw)
	}
	return v, nil
}
