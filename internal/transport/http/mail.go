package httptransport

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailfly/backend/internal/middleware"
	"mailfly/backend/internal/service"
)

// MailHandler 处理单封邮件的读取与删除。
type MailHandler struct {
	emails  *service.EmailService
	inboxes *service.InboxService
}

// NewMailHandler 创建邮件处理器。
func NewMailHandler(emails *service.EmailService, inboxes *service.InboxService) *MailHandler {
	return &MailHandler{emails: emails, inboxes: inboxes}
}

// Get 处理 GET /api/mail/:id。
// format=raw 时返回 message/rfc822 原始内容，默认返回 JSON 详情。
func (h *MailHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !h.authorize(c, id) {
		return
	}

	if c.Query("format") == "raw" {
		email, err := h.emails.GetRaw(id)
		if err != nil {
			failErr(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.eml"`, email.ID))
		c.Data(http.StatusOK, "message/rfc822", []byte(email.Raw))
		return
	}

	view, err := h.emails.Get(id)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete 处理 DELETE /api/mail/:id。
func (h *MailHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !h.authorize(c, id) {
		return
	}

	if err := h.emails.Delete(id); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// authorize 校验调用方有权访问邮件所属的邮箱。
// 邮件不存在与无权访问都向调用方反馈同样的信息量。
func (h *MailHandler) authorize(c *gin.Context, id string) bool {
	addr, err := h.emails.InboxAddress(id)
	if err != nil {
		failErr(c, err)
		return false
	}

	key := c.GetString(middleware.ContextAccessKey)
	userID := c.GetString(middleware.ContextUserID)
	if !h.inboxes.CheckAccess(addr, key, userID) {
		fail(c, http.StatusForbidden, "无权访问该邮件")
		return false
	}
	return true
}
