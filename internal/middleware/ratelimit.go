package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CreateLimiter 限制单个 IP 每小时创建邮箱的数量。
// 配置了 Redis 时用 Redis 计数（多实例共享），否则退化为进程内计数。
type CreateLimiter struct {
	perHour int
	rdb     *redis.Client
	logger  *zap.Logger

	mu     sync.Mutex
	local  map[string]int
	bucket int64
}

// NewCreateLimiter 创建限流器。perHour <= 0 表示不限流。rdb 可为 nil。
func NewCreateLimiter(perHour int, rdb *redis.Client, logger *zap.Logger) *CreateLimiter {
	return &CreateLimiter{
		perHour: perHour,
		rdb:     rdb,
		logger:  logger,
		local:   make(map[string]int),
	}
}

// Limit 返回挂载在创建接口上的限流中间件。
func (l *CreateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.perHour <= 0 {
			c.Next()
			return
		}
		if !l.allow(c) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "创建过于频繁，请稍后再试"})
			return
		}
		c.Next()
	}
}

func (l *CreateLimiter) allow(c *gin.Context) bool {
	ip := c.ClientIP()
	bucket := time.Now().Unix() / 3600

	if l.rdb != nil {
		key := fmt.Sprintf("mailfly:ratelimit:create:%s:%d", ip, bucket)
		count, err := l.rdb.Incr(c.Request.Context(), key).Result()
		if err == nil {
			if count == 1 {
				l.rdb.Expire(c.Request.Context(), key, time.Hour)
			}
			return count <= int64(l.perHour)
		}
		// Redis 不可用时退化为本地计数
		l.logger.Warn("rate limit redis unavailable, falling back to local counter", zap.Error(err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if bucket != l.bucket {
		l.bucket = bucket
		l.local = make(map[string]int)
	}
	l.local[ip]++
	return l.local[ip] <= l.perHour
}
