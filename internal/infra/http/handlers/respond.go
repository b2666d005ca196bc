package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/glowlocal/lead-payments/internal/usecase"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeUseCaseError maps the error taxonomy onto HTTP statuses.
func writeUseCaseError(w http.ResponseWriter, err error) {
	switch {
	case usecase.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case usecase.IsConflictError(err):
		writeError(w, http.StatusConflict, err.Error())
	case usecase.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, err.Error())
	case usecase.IsSecurityError(err):
		writeError(w, http.StatusUnauthorized, "invalid_signature")
	case usecase.IsUpstreamError(err):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
