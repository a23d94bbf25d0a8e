// Common helper functions for HTTP handlers.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/moldock/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError maps application-level errors to HTTP status codes using the
// error code registry. Server-side failures are masked so that internal
// detail never leaks to clients.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	msg := err.Error()
	if errors.IsServerError(code) || code == errors.CodeUnknown {
		msg = errors.DefaultMessageForCode(code)
	}

	writeJSON(w, status, ErrorResponse{
		Code:    code.String(),
		Message: msg,
	})
}
