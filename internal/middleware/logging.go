package middleware

import (
	"time"

	"github.com/Agk8907/AI-chat-Application/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger 是一个 Gin 中间件，用于记录请求日志。
// 流式聊天路由的响应体是无界的分块输出，这里不做响应体捕获，只记录元信息。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		log.Infow("HTTP Request",
			"statusCode", c.Writer.Status(),
			"latency", latency.String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
