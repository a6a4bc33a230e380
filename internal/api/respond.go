// internal/api/respond.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	custom_errors "github-showcase/internal/errors"
	"github-showcase/internal/i18n"
)

// envelope is the shape of every API response.
type envelope struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondOK(w http.ResponseWriter, result interface{}, message string) {
	respondWithJSON(w, http.StatusOK, envelope{Success: true, Result: result, Message: message})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, envelope{Success: false, Message: message})
}

// fail maps err to a response. Unexpected errors are logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing *custom_errors.ErrMissingField
		tooSoon *custom_errors.ErrRefreshTooFrequent
	)
	switch {
	case errors.Is(err, custom_errors.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &missing):
		respondWithError(w, http.StatusBadRequest, missing.Error())
	case errors.Is(err, errInvalidBody):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooSoon):
		respondWithError(w, http.StatusTooManyRequests, h.t(r, i18n.UpdateFrequent))
	default:
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, h.t(r, i18n.ErrorInternal))
	}
}
