package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/sales-api/config"
	"github.com/d60-Lab/sales-api/internal/model"
	"github.com/d60-Lab/sales-api/pkg/response"
)

// gin context keys
const (
	CtxUserID = "auth_user_id"
	CtxRole   = "auth_role"
)

// Auth 校验 Bearer token，把 userID / role 放进上下文。
// 网关回调接口不走这里，它们靠签名鉴权。
func Auth(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtCfg.Key), nil
		},
			jwt.WithIssuer(jwtCfg.Issuer),
			jwt.WithAudience(jwtCfg.Audience),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			response.Unauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Unauthorized(c, "invalid token claims")
			return
		}
		sub, _ := claims.GetSubject()
		userID, err := strconv.ParseInt(sub, 10, 64)
		if err != nil || userID <= 0 {
			response.Unauthorized(c, "invalid user id in token")
			return
		}

		role := model.RoleCustomer
		if r, ok := claims["role"].(string); ok && r != "" {
			role = r
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxRole, role)
		c.Next()
	}
}

// UserID 从上下文取当前用户
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}

// IsAdmin 当前用户是否管理员
func IsAdmin(c *gin.Context) bool {
	return c.GetString(CtxRole) == model.RoleAdmin
}
