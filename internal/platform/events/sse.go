package events

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stream: 指定トピックの SSE ストリーミングハンドラ。
// クライアント切断（context done）で購読を外して終了する。
func Stream(h *Hub, topic string) gin.HandlerFunc {
	return func(c *gin.Context) {
		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Writer.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch := h.Subscribe(topic)
		defer h.Unsubscribe(topic, ch)

		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, open := <-ch:
				if !open {
					return
				}
				payload, err := json.Marshal(ev.Data)
				if err != nil {
					continue
				}
				fmt.Fprintf(c.Writer, "id: %s\n", ev.ID)
				fmt.Fprintf(c.Writer, "event: %s\n", ev.Name)
				fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
