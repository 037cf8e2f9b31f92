package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
)

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes the {"error": code, "detail": ..., "request_id": ...} envelope.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code string, detail string) {
	requestID, _ := RequestIDFromContext(r.Context())
	body := map[string]any{
		"error":      code,
		"request_id": requestID,
	}
	if detail = strings.TrimSpace(detail); detail != "" {
		body["detail"] = detail
	}
	WriteJSON(w, status, body)
}
