package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GlobalTokenGate 在配置了全局管理令牌时，对除认证接口之外的所有
// /api 路径要求携带有效令牌：配置的管理令牌本身，或已签发的 API 令牌。
//
// adminToken 为空时不启用。令牌从 Authorization 头或 X-API-Token 头读取。
func GlobalTokenGate(adminToken string, validate func(token string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" {
			c.Next()
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/auth/") {
			c.Next()
			return
		}

		token := extractToken(c)
		if token != "" {
			if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) == 1 {
				c.Next()
				return
			}
			if validate != nil && validate(token) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的访问令牌"})
	}
}

// RequireAdminToken 只接受配置的管理令牌，用于令牌管理接口。
func RequireAdminToken(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "管理令牌未配置"})
			return
		}
		token := extractToken(c)
		if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "需要管理令牌"})
			return
		}
		c.Next()
	}
}

// extractToken 从 Authorization: Bearer 或 X-API-Token 头中提取令牌。
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.GetHeader("X-API-Token")
}
