package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parley/internal/pkg/ctxutil"
	"parley/internal/pkg/jwt"
	"parley/internal/pkg/response"
)

const claimsKey = "claims"

// Auth JWT 认证中间件
// 优先从 Authorization header 提取 Bearer token，没有时读取会话 Cookie
// 验证后注入 user_id 到 context
func Auth(jwtUtil *jwt.JWT, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c, cookieName)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			code := response.CodeUnauthorized
			if errors.Is(err, jwt.ErrExpiredToken) {
				code = response.CodeTokenExpired
			}
			response.Abort(c, http.StatusUnauthorized, code, "Invalid or expired session")
			return
		}

		ctx := ctxutil.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", claims.UserID)
		c.Set(claimsKey, claims)

		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		// Bearer {token}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if cookieName == "" {
		return "", false
	}
	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// GetClaims 读取 Auth 中间件解析出的 Claims
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
