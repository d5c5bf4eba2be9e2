package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestLogger tags each request with an id and logs it once it completes.
func (h *Handler) requestLogger(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("requestId", id)
	c.Header(requestIDHeader, id)

	start := time.Now()
	c.Next()

	if h.log == nil {
		return
	}
	h.log.Debugw("http_request",
		"request_id", id,
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"elapsed", time.Since(start),
	)
}
