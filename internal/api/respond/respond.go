// Package respond implements the response envelope shared by every portal
// endpoint. All JSON responses carry the same top-level shape so browser
// clients can branch on a single success flag:
//
//	{ "success": true,  "data": ... }
//	{ "success": false, "error": { "message": "...", "code": "...", "details": ... } }
//
// Machine-readable codes are stable across releases; messages are
// human-readable and may change.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stable error codes returned in the envelope's error.code field.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeLoginError      = "LOGIN_ERROR"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Envelope is the top-level response shape.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries failure details inside an envelope.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Success writes a success envelope with the given payload.
func Success(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// OK writes a 200 success envelope.
func OK(c *gin.Context, data any) {
	Success(c, http.StatusOK, data)
}

// Created writes a 201 success envelope.
func Created(c *gin.Context, data any) {
	Success(c, http.StatusCreated, data)
}

// Error writes a failure envelope with the given status, message, and code.
func Error(c *gin.Context, status int, message, code string) {
	c.JSON(status, Envelope{Success: false, Error: &ErrorBody{Message: message, Code: code}})
}

// ValidationError writes a 400 failure with optional per-field details.
func ValidationError(c *gin.Context, message string, details any) {
	c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Error:   &ErrorBody{Message: message, Code: CodeValidationError, Details: details},
	})
}

// Unauthorized writes a 401 failure. Callers pass a generic message so the
// response does not reveal whether a token was absent, expired, or forged.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, CodeUnauthorized)
}

// Forbidden writes a 403 failure.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, CodeForbidden)
}

// NotFound writes a 404 failure with code NOT_FOUND.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, CodeNotFound)
}

// UserNotFound writes a 404 failure with the login-specific code so the
// portal can distinguish an unknown account from a missing resource.
func UserNotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "User not found", CodeUserNotFound)
}

// InternalError writes a 500 failure. The underlying error is never included
// in the body; handlers log it with the request-scoped logger instead.
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error", CodeInternalError)
}
