package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailfly/backend/internal/auth"
	"mailfly/backend/internal/storage"
)

// fail 按统一的 {"error": msg} 结构返回失败响应。
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// failErr 把业务错误映射为状态码与中文消息后返回。
func failErr(c *gin.Context, err error) {
	status, msg := mapError(err)
	fail(c, status, msg)
}

// mapError 业务错误 -> (HTTP 状态码, 中文消息)。
// 未识别的错误一律 500，不向外泄漏内部细节。
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrInboxNotFound):
		return http.StatusNotFound, "邮箱不存在或已过期"
	case errors.Is(err, storage.ErrEmailNotFound):
		return http.StatusNotFound, "邮件不存在"
	case errors.Is(err, storage.ErrInboxExists):
		return http.StatusConflict, "邮箱地址已被占用"
	case errors.Is(err, storage.ErrUsernameTaken):
		return http.StatusConflict, "用户名已被注册"
	case errors.Is(err, storage.ErrTokenNotFound):
		return http.StatusNotFound, "令牌不存在"
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, "用户名或密码格式不符合要求"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "用户名或密码错误"
	default:
		return http.StatusInternalServerError, "服务器内部错误"
	}
}
