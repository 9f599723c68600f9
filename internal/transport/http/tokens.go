package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailfly/backend/internal/service"
)

// TokenHandler 处理 API 令牌管理接口，仅管理令牌可用。
type TokenHandler struct {
	tokens *service.TokenService
}

// NewTokenHandler 创建令牌处理器。
func NewTokenHandler(tokens *service.TokenService) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

type createTokenRequest struct {
	Name string `json:"name"`
}

// Create 处理 POST /api/tokens。
func (h *TokenHandler) Create(c *gin.Context) {
	var req createTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "请求参数格式错误")
			return
		}
	}

	token, err := h.tokens.Create(req.Name)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// List 处理 GET /api/tokens。
func (h *TokenHandler) List(c *gin.Context) {
	tokens, err := h.tokens.List()
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Delete 处理 DELETE /api/tokens/:token。
func (h *TokenHandler) Delete(c *gin.Context) {
	if err := h.tokens.Delete(c.Param("token")); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
