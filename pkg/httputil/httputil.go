// Package httputil centralizes JSON encoding and domain-error translation
// at the HTTP boundary so every handler produces the same envelopes.
package httputil

import (
	"encoding/json"
	"net/http"

	"fedreg/pkg/apierrors"
)

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError maps a coded error to its status and envelope. Internal detail
// never leaks: uncoded errors collapse to a generic internal message.
func WriteError(w http.ResponseWriter, err error) {
	code := apierrors.CodeOf(err)
	WriteJSON(w, apierrors.ToHTTPStatus(code), ErrorResponse{
		Error:   string(code),
		Message: apierrors.MessageOf(err),
	})
}

// DecodeJSON decodes the request body into T, writing a bad_request
// response on malformed input. The bool reports whether decoding succeeded.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var value T
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		WriteError(w, apierrors.New(apierrors.CodeBadRequest, "malformed request body"))
		return value, false
	}
	return value, true
}
