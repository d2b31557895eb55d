// Package httpserver contains HTTP handlers and middleware.
//
// It provides the REST endpoints for job analysis and listing retrieval and
// keeps HTTP concerns separate from business logic.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/careerbuddy/careerbuddy/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrRateLimited):
		code = http.StatusTooManyRequests
		codeStr = "RATE_LIMITED"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		code = http.StatusTooManyRequests
		codeStr = "UPSTREAM_RATE_LIMIT"
	case errors.Is(err, domain.ErrConfig):
		code = http.StatusInternalServerError
		codeStr = "CONFIG"
	case errors.Is(err, domain.ErrUpstream):
		code = http.StatusInternalServerError
		codeStr = "UPSTREAM_ERROR"
	case errors.Is(err, domain.ErrInternal):
		code = http.StatusInternalServerError
		codeStr = "INTERNAL"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
