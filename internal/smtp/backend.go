package smtp

import (
	"io"
	"strings"

	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"mailfly/backend/internal/service"
)

// Backend 实现 go-smtp 的 Backend 接口。
//
// 这是一个只接收邮件的 SMTP 服务器：RCPT 阶段严格校验收件人
// 必须是系统内未过期的邮箱，外部地址一律 550 拒绝，不做开放中继。
type Backend struct {
	ingest          *service.IngestService
	limiter         *ConnLimiter
	maxMessageBytes int64
	logger          *zap.Logger
}

// NewBackend 创建 SMTP Backend。
func NewBackend(ingest *service.IngestService, limiter *ConnLimiter, maxMessageBytes int64, logger *zap.Logger) *Backend {
	if maxMessageBytes <= 0 {
		maxMessageBytes = 10 << 20
	}
	return &Backend{
		ingest:          ingest,
		limiter:         limiter,
		maxMessageBytes: maxMessageBytes,
		logger:          logger,
	}
}

// NewSession 创建新的 SMTP 会话。超过连接速率时直接拒绝。
func (b *Backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	if b.limiter != nil && !b.limiter.Allow() {
		return nil, &gosmtp.SMTPError{
			Code:         421,
			EnhancedCode: gosmtp.EnhancedCode{4, 7, 0},
			Message:      "too many connections, try again later",
		}
	}
	return &session{backend: b}, nil
}

type session struct {
	backend     *Backend
	fromAddress string
	recipients  []string
}

// Mail 处理 MAIL 命令。
func (s *session) Mail(from string, opts *gosmtp.MailOptions) error {
	s.fromAddress = normalizeAddress(from)
	return nil
}

// Rcpt 处理 RCPT 命令。
//
// 收件人必须是系统内未过期的邮箱，否则 550 拒绝。
// 过期邮箱与不存在的邮箱对发件方不可区分。
func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	addr := normalizeAddress(to)

	if !strings.Contains(addr, "@") {
		return &gosmtp.SMTPError{
			Code:         501,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 3},
			Message:      "invalid recipient address",
		}
	}

	if !s.backend.ingest.Accept(addr) {
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 1},
			Message:      "recipient mailbox not found",
		}
	}

	s.recipients = append(s.recipients, addr)
	return nil
}

// Data 处理邮件内容，逐个收件人走投递管道。
func (s *session) Data(r io.Reader) error {
	rawBytes, err := io.ReadAll(io.LimitReader(r, s.backend.maxMessageBytes))
	if err != nil {
		return err
	}

	subject := ""
	if parsed, err := ParseEmail(rawBytes); err == nil {
		subject = parsed.Subject
	}

	for _, rcpt := range s.recipients {
		env := &service.Envelope{
			To:      rcpt,
			From:    s.fromAddress,
			Subject: subject,
			Raw:     rawBytes,
		}
		if err := s.backend.ingest.Ingest(env); err != nil {
			s.backend.logger.Error("mail ingest failed",
				zap.String("to", rcpt),
				zap.Error(err),
			)
			return &gosmtp.SMTPError{
				Code:         451,
				EnhancedCode: gosmtp.EnhancedCode{4, 3, 0},
				Message:      "temporary delivery failure",
			}
		}
	}

	return nil
}

// Reset 重置会话状态。
func (s *session) Reset() {
	s.fromAddress = ""
	s.recipients = nil
}

// Logout 会话结束。
func (s *session) Logout() error {
	return nil
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.Trim(addr, "<>")
	return strings.ToLower(addr)
}
