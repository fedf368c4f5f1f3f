package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the HTTP header used to propagate the request identifier.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key under which the request ID is stored
	// so handlers and the logger can read it without parsing headers.
	RequestIDKey = "request_id"
)

// RequestID ensures every request carries a unique identifier. An inbound
// X-Request-ID (set by a reverse proxy or a portal retry wrapper) is reused
// unchanged; otherwise a UUID v4 is generated. The identifier is stored in
// the context and echoed back in the response header so browser clients can
// correlate failed requests with server-side log entries.
//
// Register this middleware before the logger so all log lines include the ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
