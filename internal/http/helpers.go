package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"expenseportal/internal/auth"
	"expenseportal/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors become 500 without leaking their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rateErr *core.RateLimitedError

	switch {
	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())+1))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error: "too many failed attempts, try again later", Code: "rate_limited"})
	case errors.Is(err, core.ErrInvalidFormat), errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: err.Error(), Code: "invalid_format"})
	case errors.Is(err, core.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error: "invalid credentials", Code: "invalid_credentials"})
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error: "authentication required", Code: "not_authenticated"})
	case errors.Is(err, auth.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error: "session expired", Code: "session_expired"})
	case errors.Is(err, auth.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error: "forbidden", Code: "forbidden"})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: "not found", Code: "not_found"})
	case errors.Is(err, core.ErrDraftSubmitted):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "draft already submitted", Code: "draft_submitted"})
	case errors.Is(err, core.ErrAlreadyDecided):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "expense already decided", Code: "already_decided"})
	case errors.Is(err, core.ErrEmptyDraft):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "draft has no items", Code: "empty_draft"})
	case errors.Is(err, core.ErrPartialSubmission):
		slog.ErrorContext(r.Context(), "Partial submission", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "submission partially applied, contact an administrator", Code: "partial_submission"})
	case errors.Is(err, core.ErrStoreUnavailable):
		slog.ErrorContext(r.Context(), "Row store unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "storage temporarily unavailable", Code: "store_unavailable"})
	default:
		slog.ErrorContext(r.Context(), "Unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal error", Code: "internal"})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
