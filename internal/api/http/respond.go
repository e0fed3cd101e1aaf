// Package apihttp holds the JSON plumbing shared by the HTTP handlers.
package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"freelance-tax/internal/auth"
	ledger "freelance-tax/internal/ledger/domain"
	tax "freelance-tax/internal/tax/domain"
)

const maxBodyBytes = 1 << 20

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes a bounded request body into v.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ledger.NewValidationError("body", "invalid json: "+err.Error())
	}
	return nil
}

// RespondError maps err to a status code and a flat message.
func RespondError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case ledger.IsNotFound(err):
		http.Error(w, "not found", http.StatusNotFound)
	case ledger.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrMonthClosed), errors.Is(err, tax.ErrScheduleAlreadyPaid):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// MethodNotAllowed answers 405.
func MethodNotAllowed(w http.ResponseWriter) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}
