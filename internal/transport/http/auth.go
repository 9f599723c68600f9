package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailfly/backend/internal/auth"
)

// AuthHandler 处理注册与登录。
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler 创建认证处理器。
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{auth: authService}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register 处理 POST /api/auth/register。
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}

	result, err := h.auth.Register(req.Username, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Login 处理 POST /api/auth/login。
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}

	result, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
