package storage

import (
	"errors"
	"time"

	"mailfly/backend/internal/domain"
)

var (
	// ErrInboxNotFound 邮箱不存在（或对调用方而言等同于不存在）
	ErrInboxNotFound = errors.New("inbox not found")
	// ErrInboxExists 邮箱地址已被占用
	ErrInboxExists = errors.New("inbox address already exists")
	// ErrEmailNotFound 邮件不存在
	ErrEmailNotFound = errors.New("email not found")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken 用户名已被注册
	ErrUsernameTaken = errors.New("username already exists")
	// ErrTokenNotFound API 令牌不存在
	ErrTokenNotFound = errors.New("api token not found")
)

// InboxRepository 定义邮箱记录的存取操作。
//
// GetInbox 不做过期过滤（续期、转发设置与访问判定需要看到已过期但
// 未被回收的邮箱）；GetActiveInbox 只返回 expires_at > now 的邮箱。
type InboxRepository interface {
	CreateInbox(inbox *domain.Inbox) error
	GetInbox(address string) (*domain.Inbox, error)
	GetActiveInbox(address string, now time.Time) (*domain.Inbox, error)
	UpdateInboxExpiry(address string, expiresAt time.Time) error
	UpdateInboxForward(address string, forwardTo string) error
	// DeleteInbox 在单个事务内删除邮箱及其全部邮件，
	// 不允许出现只删一半的可见状态。
	DeleteInbox(address string) error
}

// EmailRepository 定义邮件与投递统计的存取操作。
type EmailRepository interface {
	// SaveEmailWithStat 在单个事务内写入邮件与对应的投递统计记录，
	// 两者要么同时可见要么都不可见。
	SaveEmailWithStat(email *domain.Email, stat *domain.DeliveryStat) error
	ListEmails(address string) ([]domain.EmailSummary, error)
	GetEmail(id string) (*domain.Email, error)
	DeleteEmail(id string) error
}

// UserRepository 定义用户数据存取操作。
type UserRepository interface {
	CreateUser(user *domain.User) error
	GetUserByUsername(username string) (*domain.User, error)
}

// TokenRepository 定义管理面 API 令牌的存取操作。
type TokenRepository interface {
	SaveAPIToken(token *domain.APIToken) error
	GetAPIToken(token string) (*domain.APIToken, error)
	ListAPITokens() ([]domain.APIToken, error)
	DeleteAPIToken(token string) error
}

// StatsRepository 定义统计查询与保留期回收操作。
type StatsRepository interface {
	CountInboxes() (int64, error)
	CountActiveInboxes(now time.Time) (int64, error)
	CountStats() (int64, error)
	CountStatsSince(since time.Time) (int64, error)
	TopSenders(limit int) ([]domain.SenderCount, error)
	CountEmailsForInbox(address string) (int64, error)
	TopSendersForInbox(address string, limit int) ([]domain.SenderCount, error)
	EmailsByHour() ([]domain.HourCount, error)
	// SweepExpired 删除所有过期邮箱的邮件，再删除过期邮箱本身；
	// 两步在同一事务内完成，保证邮件不会比所属邮箱活得更久。
	// 返回删除的邮件数与邮箱数。
	SweepExpired(now time.Time) (emails int64, inboxes int64, err error)
	DeleteStatsBefore(cutoff time.Time) (int64, error)
}

// Store 聚合全部仓储能力，由 sql 与 memory 两种实现提供。
type Store interface {
	InboxRepository
	EmailRepository
	UserRepository
	TokenRepository
	StatsRepository
	Close() error
	Health() error
}
