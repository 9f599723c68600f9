package service

import (
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// 正文兜底占位内容。
const (
	placeholderNoBody      = "<i>(无正文内容)</i>"
	placeholderParseFailed = "<i>(邮件解析失败，请查看原始邮件)</i>"
	defaultSubject         = "(无主题)"
)

// ParsedMail 是 MIME 解析器的输出：HTML 正文和纯文本正文，均可为空。
type ParsedMail struct {
	HTML string
	Text string
}

// Parser 将原始 RFC-822 字节流解析为可展示的正文。
type Parser interface {
	Parse(raw []byte) (*ParsedMail, error)
}

// Forwarder 将原始邮件投递到外部地址。
type Forwarder interface {
	Forward(from, to string, raw []byte) error
}

// Notifier 在邮件落库后推送新邮件通知。
type Notifier interface {
	NotifyNewMail(address string, summary domain.EmailSummary)
}

// Envelope 是入站邮件投递事件携带的信封与内容。
type Envelope struct {
	To      string
	From    string
	Subject string
	Raw     []byte
}

// IngestService 是入站邮件处理管道：校验目标邮箱、按需转发、
// 解析正文并把邮件与投递统计一并落库。
type IngestService struct {
	store     storage.Store
	parser    Parser
	forwarder Forwarder
	notifier  Notifier
	logger    *zap.Logger

	deliveredCounter prometheus.Counter
	rejectedCounter  prometheus.Counter
	forwardedCounter prometheus.Counter
}

// NewIngestService 创建入站投递服务。forwarder 为 nil 时禁用转发。
func NewIngestService(store storage.Store, parser Parser, forwarder Forwarder, logger *zap.Logger) *IngestService {
	return &IngestService{
		store:     store,
		parser:    parser,
		forwarder: forwarder,
		logger:    logger,
	}
}

// SetNotifier 设置新邮件通知器，可为空。
func (s *IngestService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetMetrics 注入投递、拒收与转发计数器，未注入时不计数。
func (s *IngestService) SetMetrics(delivered, rejected, forwarded prometheus.Counter) {
	s.deliveredCounter = delivered
	s.rejectedCounter = rejected
	s.forwardedCounter = forwarded
}

// Accept 判断目标地址是否对应一个未过期的邮箱。
// SMTP 层在 RCPT 阶段调用，提前拒绝无效投递。
func (s *IngestService) Accept(to string) bool {
	if _, err := s.store.GetActiveInbox(to, time.Now().UTC()); err != nil {
		if s.rejectedCounter != nil {
			s.rejectedCounter.Inc()
		}
		return false
	}
	return true
}

// Ingest 处理一封入站邮件。
//
// 目标邮箱不存在或已过期是唯一的硬拒绝。转发在消费原始字节流之前
// 尽力而为地执行，失败只记日志不中断；解析失败降级为占位正文。
// 邮件行与统计行在同一事务中写入。
func (s *IngestService) Ingest(env *Envelope) error {
	now := time.Now().UTC()

	inbox, err := s.store.GetActiveInbox(env.To, now)
	if err != nil {
		return fmt.Errorf("mailbox %s not available: %w", env.To, err)
	}

	// 转发必须先于正文解析：字节流已在信封中完整持有，
	// 但失败不影响本地落库
	if inbox.ForwardTo != "" && s.forwarder != nil {
		if err := s.forwarder.Forward(env.From, inbox.ForwardTo, env.Raw); err != nil {
			s.logger.Warn("mail forward failed",
				zap.String("address", inbox.Address),
				zap.String("forward_to", inbox.ForwardTo),
				zap.Error(err),
			)
		} else if s.forwardedCounter != nil {
			s.forwardedCounter.Inc()
		}
	}

	subject := env.Subject
	if subject == "" {
		subject = defaultSubject
	}

	email := &domain.Email{
		ID:           uuid.NewString(),
		InboxAddress: inbox.Address,
		FromAddr:     env.From,
		Subject:      subject,
		Body:         s.renderBody(env.Raw),
		Raw:          string(env.Raw),
		ReceivedAt:   now,
	}
	stat := &domain.DeliveryStat{
		FromAddr:   env.From,
		ReceivedAt: now,
	}

	if err := s.store.SaveEmailWithStat(email, stat); err != nil {
		return fmt.Errorf("save email: %w", err)
	}

	if s.deliveredCounter != nil {
		s.deliveredCounter.Inc()
	}
	if s.notifier != nil {
		s.notifier.NotifyNewMail(inbox.Address, email.Summary())
	}

	s.logger.Info("mail delivered",
		zap.String("address", inbox.Address),
		zap.String("from", env.From),
		zap.String("email_id", email.ID),
	)
	return nil
}

// renderBody 把原始邮件渲染为 HTML 安全的展示正文。
// 优先 HTML 正文，其次转义后的纯文本，都没有时用占位内容。
func (s *IngestService) renderBody(raw []byte) string {
	parsed, err := s.parser.Parse(raw)
	if err != nil || parsed == nil {
		s.logger.Warn("mail parse failed", zap.Error(err))
		return placeholderParseFailed
	}
	if parsed.HTML != "" {
		return parsed.HTML
	}
	if parsed.Text != "" {
		return fmt.Sprintf(
			`<pre style="white-space: pre-wrap; font-family: sans-serif;">%s</pre>`,
			html.EscapeString(parsed.Text),
		)
	}
	return placeholderNoBody
}
