package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 上下文键。
const (
	ContextUserID    = "userID"
	ContextAccessKey = "accessKey"
)

// AccessChecker 判断调用方凭据是否能访问指定邮箱。
type AccessChecker interface {
	CheckAccess(address, presentedKey, userID string) bool
}

// CallerResolver 从 Authorization 头解析出用户身份，失败返回空串。
type CallerResolver interface {
	ResolveCaller(authorizationHeader string) string
}

// ResolveIdentity 提取调用方凭据并存入上下文：
// 访问密钥来自 GET 的 key 查询参数或 POST/DELETE 的 key 请求体字段，
// 用户身份来自 Authorization 承载令牌。不做拒绝，只做提取。
func ResolveIdentity(resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextAccessKey, extractAccessKey(c))
		if userID := resolver.ResolveCaller(c.GetHeader("Authorization")); userID != "" {
			c.Set(ContextUserID, userID)
		}
		c.Next()
	}
}

// RequireMailboxAccess 要求调用方凭密钥或归属身份访问 :address 邮箱。
// 必须在 ResolveIdentity 之后挂载。
func RequireMailboxAccess(checker AccessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := strings.ToLower(c.Param("address"))
		key := c.GetString(ContextAccessKey)
		userID := c.GetString(ContextUserID)

		if !checker.CheckAccess(address, key, userID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "无权访问该邮箱"})
			return
		}
		c.Next()
	}
}

// extractAccessKey 按请求方法提取访问密钥。
// 读取请求体后原样放回，后续 handler 仍可绑定。
func extractAccessKey(c *gin.Context) string {
	if c.Request.Method == http.MethodGet {
		return c.Query("key")
	}

	if c.Request.Body == nil {
		return ""
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(data))

	var body struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Key
}
