package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/databridge-io/databridge/pkg/logging"
)

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// FailureResponse writes the {message, error} JSON body used for store-level
// and unexpected failures. The underlying error is preserved for diagnostics
// but sanitized so credentials never leave the server.
func FailureResponse(w http.ResponseWriter, statusCode int, message string, err error) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"message": message,
		"error":   logging.SanitizeError(err),
	})
}
