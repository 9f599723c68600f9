package health

import (
	"net/http"

	"github.com/heptiolabs/healthcheck"

	"mailfly/backend/internal/storage"
)

// Checker 聚合存活与就绪检查。
type Checker struct {
	handler healthcheck.Handler
}

// NewChecker 创建健康检查器，存储连通性作为就绪条件。
func NewChecker(store storage.Store) *Checker {
	h := healthcheck.NewHandler()
	h.AddReadinessCheck("storage", func() error {
		return store.Health()
	})
	return &Checker{handler: h}
}

// LiveHandler 返回 /healthz 的处理器。
func (c *Checker) LiveHandler() http.Handler {
	return http.HandlerFunc(c.handler.LiveEndpoint)
}

// ReadyHandler 返回 /readyz 的处理器。
func (c *Checker) ReadyHandler() http.Handler {
	return http.HandlerFunc(c.handler.ReadyEndpoint)
}
