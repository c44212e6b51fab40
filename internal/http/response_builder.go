// Package http serves the dashboard API.
//
// Responses carry a JSON envelope {data, error, notifications}. The
// notification list is duplicated into an HX-Trigger header so an
// HTMX-style frontend can toast them without reading the body.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"opsdeck/internal/ports"
)

type envelope struct {
	Data          any                  `json:"data,omitempty"`
	Error         string               `json:"error,omitempty"`
	Notifications []ports.Notification `json:"notifications,omitempty"`
}

// ResponseBuilder provides a fluent API for building API responses.
type ResponseBuilder struct {
	statusCode    int
	data          any
	errMsg        string
	notifications []ports.Notification
	triggers      map[string]any
	headers       map[string]string
}

// NewResponse creates a response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		triggers:   make(map[string]any),
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the payload placed under the envelope's data key.
func (b *ResponseBuilder) Data(data any) *ResponseBuilder {
	b.data = data
	return b
}

// Error sets the envelope's error message.
func (b *ResponseBuilder) Error(msg string) *ResponseBuilder {
	b.errMsg = msg
	return b
}

// Notify appends one notification to the envelope and mirrors it into
// the show-notification trigger.
func (b *ResponseBuilder) Notify(severity ports.Severity, message string) *ResponseBuilder {
	return b.Notifications([]ports.Notification{{Severity: severity, Message: message}})
}

// Notifications appends the given notifications.
func (b *ResponseBuilder) Notifications(notifications []ports.Notification) *ResponseBuilder {
	b.notifications = append(b.notifications, notifications...)
	return b
}

// Trigger adds a named client event to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	triggers := b.triggers
	if len(b.notifications) > 0 {
		triggers["show-notification"] = b.notifications
	}
	if len(triggers) > 0 {
		if payload, err := json.Marshal(triggers); err == nil {
			w.Header().Set("HX-Trigger", string(payload))
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)

	body := envelope{Data: b.data, Error: b.errMsg, Notifications: b.notifications}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response body", "error", err)
	}
}

// ErrorResponse creates an error response with the message in both the
// envelope and an error notification.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		Error(message).
		Notify(ports.SeverityError, message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
