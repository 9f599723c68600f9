package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailfly/backend/internal/service"
)

// StatsHandler 处理全局统计接口。
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler 创建统计处理器。
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Global 处理 GET /api/stats。
func (h *StatsHandler) Global(c *gin.Context) {
	result, err := h.stats.Global()
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
