// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"

	"github.com/Agk8907/AI-chat-Application/pkg/database"
	"github.com/Agk8907/AI-chat-Application/pkg/token"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// Authorization 头直接携带裸 token（没有 "Bearer " 前缀，沿用历史客户端的约定）。
// 缺失 token 返回 401，无效或已登出的 token 返回 400。
func AuthMiddleware(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access denied"})
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
			return
		}

		// 已登出的 token 在黑名单里（未配置 Redis 时跳过该检查）
		if database.RDB != nil {
			if exists, err := database.RDB.Exists(c.Request.Context(), "blacklist:"+tokenString).Result(); err == nil && exists > 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
				return
			}
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
			return
		}

		// 将调用者身份存入 context，供后续处理函数做归属过滤
		c.Set("userID", userID)
		c.Set("token", tokenString)

		c.Next()
	}
}
