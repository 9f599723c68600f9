package service

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// ErrInvalidAddress 表示邮箱地址格式非法。
var ErrInvalidAddress = errors.New("invalid mailbox address")

// InboxService 负责临时邮箱的创建、查询、续期、转发设置与删除。
type InboxService struct {
	store   storage.Store
	domains []string
	ttl     time.Duration
	logger  *zap.Logger

	createdCounter prometheus.Counter
	deletedCounter prometheus.Counter
}

// NewInboxService 创建邮箱服务。domains 必须非空，第一个为默认域名。
func NewInboxService(store storage.Store, domains []string, ttl time.Duration, logger *zap.Logger) *InboxService {
	return &InboxService{
		store:   store,
		domains: domains,
		ttl:     ttl,
		logger:  logger,
	}
}

// SetMetrics 注入创建与删除计数器，未注入时不计数。
func (s *InboxService) SetMetrics(created, deleted prometheus.Counter) {
	s.createdCounter = created
	s.deletedCounter = deleted
}

// Domains 返回允许创建邮箱的域名列表。
func (s *InboxService) Domains() []string {
	out := make([]string, len(s.domains))
	copy(out, s.domains)
	return out
}

// CreateResult 是创建邮箱的返回结果，访问密钥仅在此处返回一次。
type CreateResult struct {
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expires_at"`
	AccessKey string    `json:"access_key"`
}

// Create 创建一个新邮箱。
//
// prefix 规范化为小写字母数字；为空或过短时生成随机名称。
// domain 不在允许列表中时回退到默认域名。userID 可为空（匿名邮箱）。
// 地址冲突时在本地部分追加随机后缀重试一次，再次冲突返回
// storage.ErrInboxExists。
func (s *InboxService) Create(prefix, domainName, userID string) (*CreateResult, error) {
	localPart := normalizePrefix(prefix)
	if len(localPart) < 3 {
		localPart = randomName()
	}

	domainName = strings.ToLower(strings.TrimSpace(domainName))
	if !s.allowedDomain(domainName) {
		domainName = s.domains[0]
	}

	now := time.Now().UTC()
	inbox := &domain.Inbox{
		Address:   fmt.Sprintf("%s@%s", localPart, domainName),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		AccessKey: newAccessKey(),
		UserID:    userID,
	}

	err := s.store.CreateInbox(inbox)
	if errors.Is(err, storage.ErrInboxExists) {
		// 冲突时在本地部分追加随机片段，只重试一次
		inbox.Address = fmt.Sprintf("%s%s@%s", localPart, randomName()[:3], domainName)
		err = s.store.CreateInbox(inbox)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("mailbox created",
		zap.String("address", inbox.Address),
		zap.Bool("anonymous", userID == ""),
	)
	if s.createdCounter != nil {
		s.createdCounter.Inc()
	}

	return &CreateResult{
		Address:   inbox.Address,
		ExpiresAt: inbox.ExpiresAt,
		AccessKey: inbox.AccessKey,
	}, nil
}

// InboxView 是查询邮箱时返回的视图，包含邮件摘要列表。
type InboxView struct {
	Address   string                `json:"address"`
	ExpiresAt time.Time             `json:"expires_at"`
	ForwardTo string                `json:"forward_to,omitempty"`
	Emails    []domain.EmailSummary `json:"emails"`
}

// GetEmails 返回未过期邮箱的邮件列表。
// 邮箱不存在或已过期都返回 storage.ErrInboxNotFound。
func (s *InboxService) GetEmails(address string) (*InboxView, error) {
	inbox, err := s.store.GetActiveInbox(address, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	emails, err := s.store.ListEmails(address)
	if err != nil {
		return nil, err
	}

	return &InboxView{
		Address:   inbox.Address,
		ExpiresAt: inbox.ExpiresAt,
		ForwardTo: inbox.ForwardTo,
		Emails:    emails,
	}, nil
}

// RenewResult 是续期操作的返回结果。
type RenewResult struct {
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Renew 将邮箱有效期重置为当前时间加 TTL。
// 查找不带过期过滤：已过期但尚未被回收的邮箱可以借此复活。
func (s *InboxService) Renew(address string) (*RenewResult, error) {
	expiresAt := time.Now().UTC().Add(s.ttl)
	if err := s.store.UpdateInboxExpiry(address, expiresAt); err != nil {
		return nil, err
	}
	return &RenewResult{Address: address, ExpiresAt: expiresAt}, nil
}

// ForwardResult 是设置转发的返回结果。
type ForwardResult struct {
	Address   string `json:"address"`
	ForwardTo string `json:"forward_to"`
}

// SetForward 设置或清除邮箱的转发地址。forwardTo 为空表示清除转发。
// 与 Renew 相同，查找不带过期过滤。
func (s *InboxService) SetForward(address, forwardTo string) (*ForwardResult, error) {
	forwardTo = strings.TrimSpace(forwardTo)
	if err := s.store.UpdateInboxForward(address, forwardTo); err != nil {
		return nil, err
	}
	return &ForwardResult{Address: address, ForwardTo: forwardTo}, nil
}

// Delete 原子地删除邮箱及其全部邮件。
func (s *InboxService) Delete(address string) error {
	if err := s.store.DeleteInbox(address); err != nil {
		return err
	}
	s.logger.Info("mailbox deleted", zap.String("address", address))
	if s.deletedCounter != nil {
		s.deletedCounter.Inc()
	}
	return nil
}

// CheckAccess 判断调用方是否有权访问邮箱。
//
// presentedKey 与存储的访问密钥匹配，或 userID 与邮箱归属者匹配，均返回 true。
// 邮箱不存在返回 false。此处不检查有效期，需要活性的调用方自行检查。
func (s *InboxService) CheckAccess(address, presentedKey, userID string) bool {
	inbox, err := s.store.GetInbox(address)
	if err != nil {
		return false
	}
	if presentedKey != "" && presentedKey == inbox.AccessKey {
		return true
	}
	if userID != "" && userID == inbox.UserID {
		return true
	}
	return false
}

func (s *InboxService) allowedDomain(name string) bool {
	for _, d := range s.domains {
		if d == name {
			return true
		}
	}
	return false
}

// normalizePrefix 将前缀规范化为小写字母数字字符。
func normalizePrefix(prefix string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(prefix)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// randomName 生成 形容词+名词+数字 形式的随机邮箱名，如 coolpanda42。
func randomName() string {
	adj := nameAdjectives[rand.Intn(len(nameAdjectives))]
	noun := nameNouns[rand.Intn(len(nameNouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, rand.Intn(1000))
}

// newAccessKey 生成邮箱访问密钥，创建后不可再次获取。
func newAccessKey() string {
	return "key_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
