package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// sseWriter prepares the response for server-sent events and returns an emit
// function that frames one JSON payload per event. emit reports false once the
// client has gone away or the payload cannot be serialized.
func sseWriter(c *gin.Context) (func(v any) bool, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return nil, false
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	return func(v any) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		default:
		}
		payload, err := json.Marshal(v)
		if err != nil {
			return false
		}
		if _, err := c.Writer.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}, true
}
