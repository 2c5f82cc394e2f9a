package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON error envelope returned by every endpoint.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Type      string   `json:"type"`
	Message   string   `json:"message"`
	RequestID string   `json:"request_id,omitempty"`
	Details   []string `json:"details,omitempty"`
}

// Error types.
const (
	ErrTypeInvalidRequest = "invalid_request"
	ErrTypeUnresolved     = "unresolved_comparators"
	ErrTypeUnavailable    = "unavailable"
	ErrTypeInternal       = "internal_error"
	ErrTypeMethod         = "method_not_allowed"
	ErrTypeTooLarge       = "request_too_large"
	ErrTypeUnauthorized   = "unauthorized"
)

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorBody, tagging it with the request ID from r.
func WriteError(w http.ResponseWriter, r *http.Request, status int, errType, message string, details ...string) {
	WriteJSON(w, status, ErrorBody{Error: ErrorDetail{
		Type:      errType,
		Message:   message,
		RequestID: GetRequestID(r.Context()),
		Details:   details,
	}})
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.status = code
		sw.written = true
		sw.ResponseWriter.WriteHeader(code)
	}
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.written {
		sw.WriteHeader(http.StatusOK)
	}
	return sw.ResponseWriter.Write(b)
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
