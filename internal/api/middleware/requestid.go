package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// RequestID 透传或生成请求ID，写回响应头方便排障
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set(headerRequestID, rid)
		c.Writer.Header().Set(headerRequestID, rid)
		c.Next()
	}
}
