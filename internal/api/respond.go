package api

import (
	"encoding/json"
	"log"
	"net/http"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeInternalError logs the real failure and hands the caller a generic
// message; storage faults never leak query detail to clients.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("internal error: method=%s path=%s request_id=%s err=%v",
		r.Method, r.URL.Path, GetRequestID(r.Context()), err)
	writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong, please try again")
}
