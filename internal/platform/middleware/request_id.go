package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CtxRequestIDKey = "request_id"

	// 外部から渡される X-Request-ID の長さ上限（ログ汚染対策）
	requestIDMaxLen = 64
)

// RequestID: X-Request-ID を引き継ぐ。無ければ UUID を採番してレスポンスにも返す。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.New().String()
		}

		c.Set(CtxRequestIDKey, rid)
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}
