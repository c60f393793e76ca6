package api

import (
	"encoding/json"
	"net/http"

	httperr "parkhaus/internal/errors"

	"parkhaus/internal/entities"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, e *httperr.HTTPError) {
	http.Error(w, e.Message, e.Code)
}

// statusForKind maps business result kinds onto HTTP status codes.
func statusForKind(kind string) int {
	switch kind {
	case entities.ResultOK:
		return http.StatusOK
	case entities.ResultValidation:
		return http.StatusUnprocessableEntity
	case entities.ResultNotFound:
		return http.StatusNotFound
	case entities.ResultForbidden:
		return http.StatusForbidden
	case entities.ResultConflict, entities.ResultRejected:
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}
