// Package handlers provides the HTTP handler implementations for the local
// canvassing API.
//
// This file defines the response utilities shared by every endpoint:
// a structured error envelope, consistent JSON serialization, and small
// helpers for common HTTP patterns. All failure paths go through fail() so
// that clients always receive the same shape and 5xx responses are logged
// with request context.
//
// Example error response:
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "scope_mismatch",
//	  "message": "roster rows belong to a different output area"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demographikon/go-canvass-sync/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// RequestID echoes the X-Request-ID header so client-side failures can be
// correlated with server logs. Code is a stable machine-readable string
// (see errors.go); Message is human-readable and safe to display.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"scope_mismatch"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"roster rows belong to a different output area"`
}

// fail aborts the request with a structured error envelope.
//
// Server errors (>=500) are additionally logged with the request-scoped
// logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for use by router-level fallbacks
// (404 and 405 handlers) without exposing the unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response with the given status and body.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
