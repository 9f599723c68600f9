package smtp

import (
	"golang.org/x/time/rate"
)

// ConnLimiter 限制 SMTP 新建连接的速率，令牌桶实现。
type ConnLimiter struct {
	limiter *rate.Limiter
}

// NewConnLimiter 创建连接限流器，perSecond 为每秒允许的新建连接数。
func NewConnLimiter(perSecond int) *ConnLimiter {
	if perSecond <= 0 {
		perSecond = 10
	}
	return &ConnLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond*2),
	}
}

// Allow 返回当前是否允许建立新连接。
func (l *ConnLimiter) Allow() bool {
	return l.limiter.Allow()
}
