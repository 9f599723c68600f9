package sql

import (
	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// SaveAPIToken 保存管理面 API 令牌。
func (s *Store) SaveAPIToken(token *domain.APIToken) error {
	return s.db.Create(token).Error
}

// GetAPIToken 根据令牌串获取令牌记录。
func (s *Store) GetAPIToken(token string) (*domain.APIToken, error) {
	var record domain.APIToken
	err := s.db.Where("token = ?", token).First(&record).Error
	if err != nil {
		return nil, notFound(err, storage.ErrTokenNotFound)
	}
	return &record, nil
}

// ListAPITokens 返回全部令牌，按创建时间倒序。
func (s *Store) ListAPITokens() ([]domain.APIToken, error) {
	var tokens []domain.APIToken
	err := s.db.Order("created_at DESC").Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteAPIToken 删除令牌。删除不存在的令牌不报错。
func (s *Store) DeleteAPIToken(token string) error {
	return s.db.Where("token = ?", token).Delete(&domain.APIToken{}).Error
}
