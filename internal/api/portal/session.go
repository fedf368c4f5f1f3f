package portal

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/large-event/teamd-backend/internal/session"
)

// SessionHandlers bridges the session hub to connected portals.
type SessionHandlers struct {
	hub *session.Hub
}

// NewSessionHandlers creates a new SessionHandlers instance.
func NewSessionHandlers(hub *session.Hub) *SessionHandlers {
	return &SessionHandlers{hub: hub}
}

// Events streams session lifecycle events as server-sent events. Each portal
// tab holds one of these connections; a logout published by any tab reaches
// the rest within one flush.
//
// GET /api/session/events
func (h *SessionHandlers) Events(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Status(http.StatusOK)
	// Initial comment line commits the headers so the client's EventSource
	// reaches the open state immediately.
	fmt.Fprint(c.Writer, ": connected\n\n")
	flusher.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}
