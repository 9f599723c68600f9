package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mailfly/backend/internal/middleware"
	"mailfly/backend/internal/service"
)

// InboxHandler 处理邮箱生命周期接口。
type InboxHandler struct {
	inboxes *service.InboxService
	stats   *service.StatsService
}

// NewInboxHandler 创建邮箱处理器。
func NewInboxHandler(inboxes *service.InboxService, stats *service.StatsService) *InboxHandler {
	return &InboxHandler{inboxes: inboxes, stats: stats}
}

type createInboxRequest struct {
	Prefix string `json:"prefix"`
	Domain string `json:"domain"`
}

// Create 处理 POST /api/inbox。
// 携带有效承载令牌时，新邮箱归属该用户；否则为匿名邮箱。
func (h *InboxHandler) Create(c *gin.Context) {
	var req createInboxRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "请求参数格式错误")
			return
		}
	}

	result, err := h.inboxes.Create(req.Prefix, req.Domain, c.GetString(middleware.ContextUserID))
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get 处理 GET /api/inbox/:address，返回邮箱与邮件列表。
func (h *InboxHandler) Get(c *gin.Context) {
	view, err := h.inboxes.GetEmails(address(c))
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Renew 处理 POST /api/inbox/:address/renew。
func (h *InboxHandler) Renew(c *gin.Context) {
	result, err := h.inboxes.Renew(address(c))
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type forwardRequest struct {
	ForwardTo string `json:"forward_to"`
}

// Forward 处理 POST /api/inbox/:address/forward。
// forward_to 为空表示清除转发。
func (h *InboxHandler) Forward(c *gin.Context) {
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求参数格式错误")
		return
	}

	result, err := h.inboxes.SetForward(address(c), req.ForwardTo)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete 处理 DELETE /api/inbox/:address。
func (h *InboxHandler) Delete(c *gin.Context) {
	if err := h.inboxes.Delete(address(c)); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stats 处理 GET /api/inbox/:address/stats。
func (h *InboxHandler) Stats(c *gin.Context) {
	result, err := h.stats.Inbox(address(c))
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Domains 处理 GET /api/domains，返回允许创建邮箱的域名列表。
func (h *InboxHandler) Domains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"domains": h.inboxes.Domains()})
}

func address(c *gin.Context) string {
	return strings.ToLower(c.Param("address"))
}
