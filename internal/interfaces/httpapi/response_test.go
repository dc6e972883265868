package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/office-pools/internal/domain/payout"
	"github.com/riskibarqy/office-pools/internal/domain/scoring"
	"github.com/riskibarqy/office-pools/internal/platform/resilience"
	"github.com/riskibarqy/office-pools/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_FollowsErrorClass(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: fmt.Errorf("%w: pot", payout.ErrInvalidPot), want: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("%w: pool", usecase.ErrNotFound), want: http.StatusNotFound},
		{name: "conflict", err: usecase.ErrAlreadyClaimed, want: http.StatusConflict},
		{name: "forbidden", err: usecase.ErrUnauthorized, want: http.StatusForbidden},
		{name: "unauthenticated", err: errUnauthenticated, want: http.StatusUnauthorized},
		{name: "exhaustion", err: scoring.ErrNoMatchupsFound, want: http.StatusUnprocessableEntity},
		{name: "circuit open", err: resilience.ErrCircuitOpen, want: http.StatusServiceUnavailable},
		{name: "retry exhausted", err: &resilience.ExhaustedError{Label: "claim", Attempts: 3, Err: errors.New("conn reset")}, want: http.StatusServiceUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if got.HTTPStatus != tt.want {
				t.Fatalf("mapError(%v)=%d want=%d", tt.err, got.HTTPStatus, tt.want)
			}
		})
	}
}
