package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// TokenService 管理 API 访问令牌的签发、列举与吊销。
type TokenService struct {
	store storage.Store
}

// NewTokenService 创建令牌服务。
func NewTokenService(store storage.Store) *TokenService {
	return &TokenService{store: store}
}

// Create 签发一个新的 API 令牌。name 为空时使用默认名称。
func (s *TokenService) Create(name string) (*domain.APIToken, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Unnamed"
	}
	token := &domain.APIToken{
		Token:     "mf_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveAPIToken(token); err != nil {
		return nil, err
	}
	return token, nil
}

// List 返回所有已签发的 API 令牌。
func (s *TokenService) List() ([]domain.APIToken, error) {
	return s.store.ListAPITokens()
}

// Delete 吊销一个 API 令牌。
func (s *TokenService) Delete(token string) error {
	return s.store.DeleteAPIToken(token)
}

// Validate 判断令牌是否有效。
func (s *TokenService) Validate(token string) bool {
	if token == "" {
		return false
	}
	_, err := s.store.GetAPIToken(token)
	return err == nil
}
