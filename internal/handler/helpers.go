package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/banksim-client-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
	Reason   string `json:"reason,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeRedirect answers with 303 so clients re-issue a GET on the target view.
func writeRedirect(w http.ResponseWriter, target, reason string) {
	w.Header().Set("Location", target)
	writeJSON(w, http.StatusSeeOther, redirectResponse{Redirect: target, Reason: reason})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var redirect *domain.ErrRedirect
	var validation *domain.ErrValidation
	var conflict *domain.ErrConflict
	var session *domain.ErrSession
	var apiErr *domain.APIError

	switch {
	case errors.As(err, &redirect):
		logger.Debug("redirect", zap.String("target", redirect.Target), zap.String("reason", redirect.Reason))
		writeRedirect(w, redirect.Target, redirect.Reason)
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrSubmitInFlight):
		logger.Debug("transfer in flight")
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &session):
		logger.Warn("session error", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, session.Message)
	case errors.As(err, &apiErr):
		status := apiStatus(apiErr)
		if status >= 500 {
			logger.Error("api call failed", zap.String("kind", string(apiErr.Kind)), zap.Error(err))
		} else {
			logger.Debug("api call rejected", zap.Int("status", apiErr.Status), zap.String("error", err.Error()))
		}
		writeJSON(w, status, errorResponse{Error: apiErr.Message, Kind: string(apiErr.Kind)})
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// apiStatus picks the console status for a failed remote call. Rejections
// keep the remote status; anything else is a gateway problem.
func apiStatus(e *domain.APIError) int {
	switch e.Kind {
	case domain.KindNetworkUnreachable:
		return http.StatusServiceUnavailable
	case domain.KindClientRejected:
		if e.Status >= 400 && e.Status < 500 {
			return e.Status
		}
	}
	return http.StatusBadGateway
}
