package service

import (
	"time"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// EmailService 负责单封邮件的读取与删除。
type EmailService struct {
	store storage.Store
}

// NewEmailService 创建邮件服务。
func NewEmailService(store storage.Store) *EmailService {
	return &EmailService{store: store}
}

// EmailView 是单封邮件的详情视图，附带提取出的验证码。
type EmailView struct {
	ID         string    `json:"id"`
	FromAddr   string    `json:"from_addr"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
	Code       string    `json:"code,omitempty"`
}

// Get 返回邮件详情，并从主题与正文中提取验证码。
func (s *EmailService) Get(id string) (*EmailView, error) {
	email, err := s.store.GetEmail(id)
	if err != nil {
		return nil, err
	}
	return &EmailView{
		ID:         email.ID,
		FromAddr:   email.FromAddr,
		Subject:    email.Subject,
		Body:       email.Body,
		ReceivedAt: email.ReceivedAt,
		Code:       ExtractCode(email.Subject + " " + email.Body),
	}, nil
}

// GetRaw 返回邮件的原始 RFC-822 内容。
func (s *EmailService) GetRaw(id string) (*domain.Email, error) {
	return s.store.GetEmail(id)
}

// Delete 删除单封邮件。
func (s *EmailService) Delete(id string) error {
	return s.store.DeleteEmail(id)
}

// InboxAddress 返回邮件所属的邮箱地址，供访问控制使用。
func (s *EmailService) InboxAddress(id string) (string, error) {
	email, err := s.store.GetEmail(id)
	if err != nil {
		return "", err
	}
	return email.InboxAddress, nil
}
