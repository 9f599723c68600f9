package sql

import (
	"errors"

	"gorm.io/gorm"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// CreateUser 保存新用户，用户名唯一约束冲突返回 ErrUsernameTaken。
func (s *Store) CreateUser(user *domain.User) error {
	err := s.db.Create(user).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrUsernameTaken
	}
	return err
}

// GetUserByUsername 根据用户名获取用户，区分大小写。
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, notFound(err, storage.ErrUserNotFound)
	}
	return &user, nil
}
