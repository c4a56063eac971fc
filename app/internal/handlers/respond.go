package handlers

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in JSON error bodies
const (
	errStoreNotFound  = "store_not_found"
	errReportNotFound = "report_not_found"
	errBadRequest     = "bad_request"
	errInternal       = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	body := map[string]string{"error": code}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}
