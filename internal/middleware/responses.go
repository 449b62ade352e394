package middleware

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes the {"error": ..., "status": ...} envelope.
func WriteJSONError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, errorResponse{Error: msg, Status: code})
}

// WriteError answers htmx requests with plain text the swap can show and
// everything else with the JSON envelope.
func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if IsHTMX(r.Context()) {
		http.Error(w, msg, code)
		return
	}
	WriteJSONError(w, code, msg)
}
