package sql

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// CreateInbox 保存新邮箱，依赖主键唯一约束裁决并发命名竞争。
func (s *Store) CreateInbox(inbox *domain.Inbox) error {
	err := s.db.Create(inbox).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrInboxExists
	}
	return err
}

// GetInbox 根据地址获取邮箱，不做过期过滤。
func (s *Store) GetInbox(address string) (*domain.Inbox, error) {
	var inbox domain.Inbox
	err := s.db.Where("address = ?", address).First(&inbox).Error
	if err != nil {
		return nil, notFound(err, storage.ErrInboxNotFound)
	}
	return &inbox, nil
}

// GetActiveInbox 只返回未过期的邮箱，过期与不存在对调用方不可区分。
func (s *Store) GetActiveInbox(address string, now time.Time) (*domain.Inbox, error) {
	var inbox domain.Inbox
	err := s.db.Where("address = ? AND expires_at > ?", address, now).First(&inbox).Error
	if err != nil {
		return nil, notFound(err, storage.ErrInboxNotFound)
	}
	return &inbox, nil
}

// UpdateInboxExpiry 更新过期时间，单行更新，后写覆盖先写。
func (s *Store) UpdateInboxExpiry(address string, expiresAt time.Time) error {
	result := s.db.Model(&domain.Inbox{}).Where("address = ?", address).
		Update("expires_at", expiresAt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrInboxNotFound
	}
	return nil
}

// UpdateInboxForward 更新转发地址，空值写入即清除转发。
func (s *Store) UpdateInboxForward(address string, forwardTo string) error {
	result := s.db.Model(&domain.Inbox{}).Where("address = ?", address).
		Update("forward_to", forwardTo)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrInboxNotFound
	}
	return nil
}

// DeleteInbox 在单个事务内删除邮箱的全部邮件与邮箱行本身。
func (s *Store) DeleteInbox(address string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inbox_address = ?", address).Delete(&domain.Email{}).Error; err != nil {
			return err
		}
		return tx.Where("address = ?", address).Delete(&domain.Inbox{}).Error
	})
}
