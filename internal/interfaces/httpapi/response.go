package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/office-pools/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "office-pools"
	internalMessage  = "internal server error"
)

// errUnauthenticated marks requests that carry no usable identity.
var errUnauthenticated = errors.New("unauthenticated")

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var (
	unauthenticatedMapping = mappedError{HTTPStatus: http.StatusUnauthorized, Reason: "unauthenticated", Status: "UNAUTHENTICATED"}
	forbiddenMapping       = mappedError{HTTPStatus: http.StatusForbidden, Reason: "forbidden", Status: "PERMISSION_DENIED"}
	deadlineMapping        = mappedError{HTTPStatus: http.StatusGatewayTimeout, Reason: "deadlineExceeded", Status: "DEADLINE_EXCEEDED"}
	internalMapping        = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}
)

var classMappings = map[usecase.ErrorClass]mappedError{
	usecase.ClassValidation: {HTTPStatus: http.StatusBadRequest, Reason: "invalidInput", Status: "INVALID_ARGUMENT"},
	usecase.ClassNotFound:   {HTTPStatus: http.StatusNotFound, Reason: "notFound", Status: "NOT_FOUND"},
	usecase.ClassConflict:   {HTTPStatus: http.StatusConflict, Reason: "conflict", Status: "FAILED_PRECONDITION"},
	usecase.ClassExhaustion: {HTTPStatus: http.StatusUnprocessableEntity, Reason: "unresolvable", Status: "RESOURCE_EXHAUSTED"},
	usecase.ClassTransient:  {HTTPStatus: http.StatusServiceUnavailable, Reason: "dependencyUnavailable", Status: "UNAVAILABLE"},
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, googleResponseEnvelope{APIVersion: googleAPIVersion, Data: data})
}

// writeError maps err onto the error envelope. Internal failures never leak their message.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(err)
	message := err.Error()
	if mapped.HTTPStatus == http.StatusInternalServerError {
		message = internalMessage
	}
	markSpanFailed(ctx, mapped.HTTPStatus, err)
	writeErrorEnvelope(w, mapped, message)
}

func writeInternalError(ctx context.Context, w http.ResponseWriter, cause error) {
	markSpanFailed(ctx, http.StatusInternalServerError, cause)
	writeErrorEnvelope(w, internalMapping, internalMessage)
}

func writeErrorEnvelope(w http.ResponseWriter, mapped mappedError, message string) {
	writeJSON(w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors:  []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: message}},
		},
	})
}

func mapError(err error) mappedError {
	switch {
	case errors.Is(err, errUnauthenticated):
		return unauthenticatedMapping
	case errors.Is(err, usecase.ErrUnauthorized):
		return forbiddenMapping
	}

	class := usecase.ClassOf(err)
	if class == usecase.ClassTransient && errors.Is(err, context.DeadlineExceeded) {
		return deadlineMapping
	}
	if mapped, ok := classMappings[class]; ok {
		return mapped
	}
	return internalMapping
}
