package common

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// RespondJSON writes a JSON response with the given status code
func RespondJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// RespondError writes a JSON error response
func RespondError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	RespondJSON(w, status, map[string]interface{}{
		"error":  true,
		"detail": message,
		"code":   status,
	}, logger)
}
