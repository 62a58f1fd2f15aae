package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/lifecycle"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/repository"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/store"
)

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeError maps core errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		writeJSONError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, lifecycle.ErrInvalidIndex):
		writeJSONError(w, http.StatusBadRequest, "invalid_index", err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		writeJSONError(w, http.StatusConflict, "version_conflict", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}
