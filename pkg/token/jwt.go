// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey []byte        // secretKey 用于签名和验证 token 的密钥
	expire    time.Duration // expire 为 0 时签发的 token 不携带过期声明
}

// CustomClaims 定义了我们想要在 JWT 中存储的自定义数据。
// 它嵌入了 jwt.RegisteredClaims 以包含标准的 JWT 声明。
type CustomClaims struct {
	UserID string `json:"_id"` // MongoDB ObjectID 的十六进制形式
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
// expireHours 为 0 时 token 永久有效，对齐前端 localStorage 的长期会话。
func NewJWTManager(secret string, expireHours int) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secret),
		expire:    time.Hour * time.Duration(expireHours),
	}
}

// GenerateToken 为指定用户签发一个新的 token。
func (m *JWTManager) GenerateToken(userID string) (string, error) {
	claims := CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if m.expire > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(m.expire))
	}
	// 使用 HS256 签名方法创建新的 token 对象
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken 验证给定的 token 字符串。
// 如果 token 有效，返回 CustomClaims；签名不匹配或已过期则返回错误。
func (m *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 检查签名方法是否为 HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
