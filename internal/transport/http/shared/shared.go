package shared

import (
	"encoding/json"
	"net/http"

	dErrors "deskvault/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError centralizes domain error translation to HTTP responses so every
// handler emits the same JSON error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	msg := "internal error"
	if code != dErrors.CodeInternal {
		msg = err.Error()
	}

	WriteJSON(w, status, map[string]string{
		"error": string(code),
		"msg":   msg,
	})
}
