package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload every coupon endpoint returns, wrapped in
// an {"error": ...} envelope by JSONError.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders the canonical error envelope. Codes are stable strings
// (NOT_FOUND, COUPON_EXPIRED, RATE_LIMITED, ...) that clients branch on.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
