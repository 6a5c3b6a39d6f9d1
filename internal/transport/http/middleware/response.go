package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes a JSON error body with the correct Content-Type.
// Middleware cannot use the handler package's envelopes without an import cycle.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
