// Package http serves the SpendWise JSON API.
//
// This file implements the builder used by every handler to write JSON
// bodies and typed error responses.

package http

import (
	"net/http"

	"github.com/goccy/go-json"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail    string `json:"detail"`
	ErrorType string `json:"error_type"`
}

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header sets a response header.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write encodes the body and sends the response. An encoding failure turns
// into a 500 before anything is written.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	payload, err := json.Marshal(b.body)
	if err != nil {
		http.Error(w, `{"detail":"Internal server error","error_type":"internal_error"}`, http.StatusInternalServerError)
		return
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// writeJSON is shorthand for a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

// ErrorResponse builds an error body for a kind and message.
func ErrorResponse(statusCode int, kind core.Kind, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Detail: message, ErrorType: string(kind)})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation, core.KindConflict:
		return http.StatusBadRequest
	case core.KindAuth:
		return http.StatusUnauthorized
	case core.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes the matching error response. Causes of
// server-side failures are logged and never returned to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := StatusFor(kind)

	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, string(kind),
			log.FieldPath, r.URL.Path)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldError, err.Error(),
			log.FieldErrorType, string(kind))
	}

	ErrorResponse(status, kind, core.PublicMessage(err)).Write(w)
}

// writeInvalidToken answers unauthenticated calls to protected routes.
func writeInvalidToken(w http.ResponseWriter, _ *http.Request) {
	ErrorResponse(http.StatusUnauthorized, core.KindAuth, "Invalid token").
		Header("WWW-Authenticate", "Bearer").
		Write(w)
}

const kindRateLimited core.Kind = "rate_limit_error"

// writeRateLimited answers requests over the per-client write limit.
func writeRateLimited(w http.ResponseWriter, _ *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, kindRateLimited, "Rate limit exceeded. Please try again later.").Write(w)
}
