package sql

import (
	"time"

	"gorm.io/gorm"

	"mailfly/backend/internal/domain"
)

// CountInboxes 统计全部邮箱数（含已过期未回收的）。
func (s *Store) CountInboxes() (int64, error) {
	var count int64
	err := s.db.Model(&domain.Inbox{}).Count(&count).Error
	return count, err
}

// CountActiveInboxes 统计未过期的邮箱数。
func (s *Store) CountActiveInboxes(now time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&domain.Inbox{}).Where("expires_at > ?", now).Count(&count).Error
	return count, err
}

// CountStats 统计全部投递记录数。
func (s *Store) CountStats() (int64, error) {
	var count int64
	err := s.db.Model(&domain.DeliveryStat{}).Count(&count).Error
	return count, err
}

// CountStatsSince 统计指定时刻之后的投递记录数。
func (s *Store) CountStatsSince(since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&domain.DeliveryStat{}).Where("received_at > ?", since).Count(&count).Error
	return count, err
}

// TopSenders 按投递记录聚合发件人计数，取前 limit 名。
func (s *Store) TopSenders(limit int) ([]domain.SenderCount, error) {
	var counts []domain.SenderCount
	err := s.db.Model(&domain.DeliveryStat{}).
		Select("from_addr, COUNT(*) AS count").
		Group("from_addr").
		Order("count DESC").
		Limit(limit).
		Scan(&counts).Error
	return counts, err
}

// CountEmailsForInbox 统计单个邮箱当前存有的邮件数。
func (s *Store) CountEmailsForInbox(address string) (int64, error) {
	var count int64
	err := s.db.Model(&domain.Email{}).Where("inbox_address = ?", address).Count(&count).Error
	return count, err
}

// TopSendersForInbox 按邮件表聚合单邮箱的发件人计数。
func (s *Store) TopSendersForInbox(address string, limit int) ([]domain.SenderCount, error) {
	var counts []domain.SenderCount
	err := s.db.Model(&domain.Email{}).
		Select("from_addr, COUNT(*) AS count").
		Where("inbox_address = ?", address).
		Group("from_addr").
		Order("count DESC").
		Limit(limit).
		Scan(&counts).Error
	return counts, err
}

// EmailsByHour 按 UTC 小时桶聚合全部投递记录，跨所有天累加。
//
// epoch 取模的写法在 MySQL 与 PostgreSQL 间不可移植，投递统计表
// 受保留期约束规模有限，这里取回时间戳后在内存中分桶。
func (s *Store) EmailsByHour() ([]domain.HourCount, error) {
	var timestamps []time.Time
	err := s.db.Model(&domain.DeliveryStat{}).Pluck("received_at", &timestamps).Error
	if err != nil {
		return nil, err
	}

	var buckets [24]int64
	for _, ts := range timestamps {
		hour := int(ts.Unix()/3600) % 24
		buckets[hour]++
	}

	counts := make([]domain.HourCount, 0, 24)
	for hour, count := range buckets {
		if count > 0 {
			counts = append(counts, domain.HourCount{Hour: hour, Count: count})
		}
	}
	return counts, nil
}

// SweepExpired 回收全部过期邮箱及其邮件。
//
// 先删邮件后删邮箱，两步在同一事务内完成，
// 确保任何时刻都观察不到邮件比所属邮箱活得更久。
func (s *Store) SweepExpired(now time.Time) (int64, int64, error) {
	var emails, inboxes int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where(
			"inbox_address IN (?)",
			tx.Model(&domain.Inbox{}).Select("address").Where("expires_at <= ?", now),
		).Delete(&domain.Email{})
		if result.Error != nil {
			return result.Error
		}
		emails = result.RowsAffected

		result = tx.Where("expires_at <= ?", now).Delete(&domain.Inbox{})
		if result.Error != nil {
			return result.Error
		}
		inboxes = result.RowsAffected
		return nil
	})
	return emails, inboxes, err
}

// DeleteStatsBefore 删除早于 cutoff 的投递记录。
func (s *Store) DeleteStatsBefore(cutoff time.Time) (int64, error) {
	result := s.db.Where("received_at < ?", cutoff).Delete(&domain.DeliveryStat{})
	return result.RowsAffected, result.Error
}
