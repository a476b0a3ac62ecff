package handler

import (
	"io"

	"github.com/gin-gonic/gin"
)

// streamEvents relays values from events as server-sent events until the
// client disconnects or the channel is closed. initial, when set, is sent
// first so a fresh subscriber does not wait for the next change.
func streamEvents[T any](c *gin.Context, events <-chan T, eventName func(T) string, initial func() (string, interface{})) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if initial != nil {
		name, payload := initial()
		c.SSEvent(name, payload)
		c.Writer.Flush()
	}

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(eventName(ev), ev)
			return true
		}
	})
}
