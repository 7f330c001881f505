package httpapi

import (
	"encoding/json"
	"net/http"

	"regact/domain/core"
	"regact/internal"
	"regact/internal/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.DefaultLogger.Error("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeDomainError maps domain errors onto HTTP statuses and stable codes.
// Input-contract violations are 400, runs that produce nothing scoreable are
// 422, missing resources 404, everything else 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, errors.CodeNotFound, err.Error())
	case core.IsSchemaError(err):
		writeError(w, http.StatusBadRequest, errors.CodeSchemaError, err.Error())
	case core.IsValidationError(err):
		writeError(w, http.StatusBadRequest, errors.CodeValidation, err.Error())
	case core.IsEmptyResultError(err):
		writeError(w, http.StatusUnprocessableEntity, errors.CodeEmptyResult, err.Error())
	case core.IsRankDeficiencyError(err):
		writeError(w, http.StatusUnprocessableEntity, errors.CodeRankDeficient, err.Error())
	case core.IsDeterminismError(err):
		writeError(w, http.StatusInternalServerError, errors.CodeDeterminism, err.Error())
	default:
		code := errors.CodeInternalError
		if errors.IsAppError(err) {
			code = errors.GetCode(err)
		}
		writeError(w, http.StatusInternalServerError, code, err.Error())
	}
}
