package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"event-ticket-ledger/internal/domain"
)

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func errorBody(kind, msg string) map[string]errorPayload {
	return map[string]errorPayload{"error": {Kind: kind, Message: msg}}
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrMissingIdentity) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, domain.ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAlreadyUsed, domain.KindConflict, domain.KindAlreadyRegistered:
		return http.StatusConflict
	case domain.KindInsufficientPayment:
		return http.StatusPaymentRequired
	case domain.KindNotAuthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error":{"kind","message"}}. Internal errors never leak detail.
func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusGatewayTimeout {
		writeJSON(w, code, errorBody("timeout", "request timed out"))
		return
	}
	kind := domain.KindOf(err)
	msg := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		msg = de.Msg
	}
	if kind == domain.KindInternal {
		msg = "internal error"
	}
	writeJSON(w, code, errorBody(string(kind), msg))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
