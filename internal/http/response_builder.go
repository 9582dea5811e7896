// Package http serves the JSON API.
//
// This file holds the fluent builder every handler uses to write a response
// and the mapping from domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"movimenti/internal/core"
)

// ResponseBuilder accumulates status, headers and a JSON payload.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	hasPayload bool
}

// NewResponse starts a 200 response.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the payload. A nil value is written as JSON null.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	b.hasPayload = true
	return b
}

// Write sends the response. Responses without a payload have no body.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if !b.hasPayload {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	writeJSONBody(w, b.statusCode, body)
}

func writeJSONBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse builds {"error": message} with the given status.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal server error")
}

func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// NoContent builds an empty 204.
func NoContent() *ResponseBuilder {
	return NewResponse().Status(http.StatusNoContent)
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidDirection,
	core.ErrInvalidDate,
	core.ErrEmptyID,
	core.ErrEmptyDescription,
	core.ErrEmptyName,
	core.ErrInvalidTarget,
	core.ErrNegativeSaved,
	core.ErrSavedExceedsTarget,
	errInvalidRequest,
}

// ErrorFor maps err onto a response: not found is 404, validation failures
// are 400 with their message, anything else is a generic 500.
func ErrorFor(err error) *ResponseBuilder {
	if errors.Is(err, core.ErrNotFound) {
		return NotFoundError("not found")
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return BadRequestError(err.Error())
		}
	}
	return InternalServerError()
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"operation", operation,
			"path", r.URL.Path,
			"error", err)
	} else {
		slog.WarnContext(r.Context(), "Request rejected",
			"operation", operation,
			"path", r.URL.Path,
			"status_code", resp.statusCode,
			"error", err)
	}
	resp.Write(w)
}
