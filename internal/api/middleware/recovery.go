package middleware

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/sales-api/pkg/logger"
	"github.com/d60-Lab/sales-api/pkg/response"
)

// Recovery panic 兜底：记日志、上报 sentry（若已初始化）、返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.FullPath()))
				if hub := sentry.CurrentHub(); hub.Client() != nil {
					hub.Recover(r)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}
