package handler

import (
	"encoding/json"
	"net/http"

	"github.com/AlexZinkM/wallet-payload/internal/model"
)

// Error codes of model.ErrorResponse
const (
	codeBadRequest       = "bad_request"
	codeDecryptFailed    = "decrypt_failed"
	codeInternal         = "internal"
	codeNotFound         = "not_found"
	codeUpgradeFailed    = "upgrade_failed"
	codeMethodNotAllowed = "method_not_allowed"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{
		Error: "Method not allowed. Should be " + method,
		Code:  codeMethodNotAllowed,
	})
	return false
}
