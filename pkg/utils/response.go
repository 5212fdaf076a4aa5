package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError sends the error envelope shared with the agent backend:
// {error:true, code, message}.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, map[string]any{
		"error":   true,
		"code":    code,
		"message": message,
	})
}

// RespondErrorDetail is RespondError with an extra detail field.
func RespondErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	RespondJSON(w, status, map[string]any{
		"error":   true,
		"code":    code,
		"message": message,
		"detail":  detail,
	})
}
