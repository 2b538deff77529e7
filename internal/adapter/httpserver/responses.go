// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the recommendation endpoint, catalog browse and enumeration
// endpoints, health probes and the admin catalog reload.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fairyhunter13/internship-recommender/internal/adapter/observability"
	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// engineRetryAfter is advertised while no catalog snapshot is loaded.
const engineRetryAfter = 5

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

type successEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, data interface{}, message string) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Message: message, Data: data})
}

// writeError maps the domain error taxonomy onto HTTP. Validation errors
// carry their per-field messages as details unless details is given.
func writeError(w http.ResponseWriter, r *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	msg := err.Error()

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
		if details == nil {
			details = verr.Fields
		}
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrMalformedPosting):
		code = http.StatusUnprocessableEntity
		codeStr = "MALFORMED_CATALOG"
	case errors.Is(err, domain.ErrRateLimited):
		code = http.StatusTooManyRequests
		codeStr = "RATE_LIMITED"
	case errors.Is(err, domain.ErrEngineNotInitialized):
		code = http.StatusServiceUnavailable
		codeStr = "ENGINE_NOT_INITIALIZED"
		msg = "recommendation engine is not initialized; catalog not loaded"
		if w.Header().Get("Retry-After") == "" {
			w.Header().Set("Retry-After", strconv.Itoa(engineRetryAfter))
		}
	}
	if code >= http.StatusInternalServerError && codeStr == "INTERNAL" {
		observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: msg, Details: details}})
}
