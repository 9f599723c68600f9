package sql

import (
	"gorm.io/gorm"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// SaveEmailWithStat 在单个事务内写入邮件与投递统计记录。
func (s *Store) SaveEmailWithStat(email *domain.Email, stat *domain.DeliveryStat) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(email).Error; err != nil {
			return err
		}
		return tx.Create(stat).Error
	})
}

// ListEmails 返回指定邮箱的邮件摘要，按接收时间倒序。
func (s *Store) ListEmails(address string) ([]domain.EmailSummary, error) {
	var summaries []domain.EmailSummary
	err := s.db.Model(&domain.Email{}).
		Select("id, from_addr, subject, received_at").
		Where("inbox_address = ?", address).
		Order("received_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetEmail 根据 ID 获取邮件全文（含原始字节流）。
func (s *Store) GetEmail(id string) (*domain.Email, error) {
	var email domain.Email
	err := s.db.Where("id = ?", id).First(&email).Error
	if err != nil {
		return nil, notFound(err, storage.ErrEmailNotFound)
	}
	return &email, nil
}

// DeleteEmail 删除单封邮件。删除不存在的邮件不报错。
func (s *Store) DeleteEmail(id string) error {
	return s.db.Where("id = ?", id).Delete(&domain.Email{}).Error
}
