package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标。
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	InboxesCreated prometheus.Counter
	InboxesDeleted prometheus.Counter
	InboxesSwept   prometheus.Counter

	MailsDelivered prometheus.Counter
	MailsRejected  prometheus.Counter
	MailsForwarded prometheus.Counter
}

// NewMetrics 创建监控指标，promauto 自动完成注册。
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailfly_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailfly_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		InboxesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfly_inboxes_created_total",
			Help: "Total number of mailboxes created",
		}),
		InboxesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfly_inboxes_deleted_total",
			Help: "Total number of mailboxes deleted by callers",
		}),
		InboxesSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfly_inboxes_swept_total",
			Help: "Total number of expired mailboxes removed by the sweeper",
		}),
		MailsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfly_mails_delivered_total",
			Help: "Total number of mails stored into mailboxes",
		}),
		MailsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfly_mails_rejected_total",
			Help: "Total number of inbound mails rejected at RCPT",
		}),
		MailsForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailfly_mails_forwarded_total",
			Help: "Total number of mails forwarded to external addresses",
		}),
	}
}

// HTTPHandler 返回 /metrics 的处理器。
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware 记录每个请求的计数与耗时。
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}
