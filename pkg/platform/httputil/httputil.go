// Package httputil centralizes JSON encoding and domain-error mapping for
// HTTP handlers so every endpoint responds with the same shape.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "backcheck/pkg/domain-errors"
)

// ErrorResponse is the wire shape for all error responses.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RetryAfter       int    `json:"retry_after,omitempty"`
}

// Validatable is implemented by request types that validate themselves after
// decoding. DecodeAndPrepare calls Validate before handing the request back.
type Validatable interface {
	Validate() error
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError maps a domain error to an HTTP response. Internal errors omit
// the description so storage and upstream-source detail never reaches the
// caller verbatim.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.ErrorDescription = dErrors.MessageOf(err)
	}

	WriteJSON(w, statusFor(code), resp)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes a JSON request body into T and validates it.
// On failure it writes the error response and returns ok=false; the handler
// should simply return.
func DecodeAndPrepare[T any, PT interface {
	Validatable
	*T
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "failed to decode request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if err := PT(&req).Validate(); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}
