package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

// topSendersLimit 统计接口返回的发件人排行数量。
const topSendersLimit = 5

// StatsService 负责全局与单邮箱的投递统计，以及过期数据的定期回收。
type StatsService struct {
	store          storage.Store
	statsRetention time.Duration
	logger         *zap.Logger

	sweptCounter prometheus.Counter
}

// SetSweptCounter 注入过期回收计数器，未注入时不计数。
func (s *StatsService) SetSweptCounter(c prometheus.Counter) {
	s.sweptCounter = c
}

// NewStatsService 创建统计服务。statsRetention 控制投递统计的保留期。
func NewStatsService(store storage.Store, statsRetention time.Duration, logger *zap.Logger) *StatsService {
	return &StatsService{
		store:          store,
		statsRetention: statsRetention,
		logger:         logger,
	}
}

// Global 返回全局统计：邮箱总量、活跃量、邮件总量、近 24 小时量、
// 发件人排行与按小时分布。
func (s *StatsService) Global() (*domain.GlobalStats, error) {
	now := time.Now().UTC()

	totalInboxes, err := s.store.CountInboxes()
	if err != nil {
		return nil, err
	}
	activeInboxes, err := s.store.CountActiveInboxes(now)
	if err != nil {
		return nil, err
	}
	totalEmails, err := s.store.CountStats()
	if err != nil {
		return nil, err
	}
	// "今日"是自调用时刻回溯 24 小时的滚动窗口，不按日历日切分
	todayEmails, err := s.store.CountStatsSince(now.Add(-24 * time.Hour))
	if err != nil {
		return nil, err
	}
	topSenders, err := s.store.TopSenders(topSendersLimit)
	if err != nil {
		return nil, err
	}
	byHour, err := s.store.EmailsByHour()
	if err != nil {
		return nil, err
	}

	return &domain.GlobalStats{
		TotalInboxes:  totalInboxes,
		ActiveInboxes: activeInboxes,
		TotalEmails:   totalEmails,
		TodayEmails:   todayEmails,
		TopSenders:    topSenders,
		EmailsByHour:  byHour,
	}, nil
}

// Inbox 返回单个邮箱的邮件量与发件人排行。
// 邮箱必须存在，查找不带过期过滤；不存在返回 storage.ErrInboxNotFound。
func (s *StatsService) Inbox(address string) (*domain.InboxStats, error) {
	if _, err := s.store.GetInbox(address); err != nil {
		return nil, err
	}

	total, err := s.store.CountEmailsForInbox(address)
	if err != nil {
		return nil, err
	}
	topSenders, err := s.store.TopSendersForInbox(address, topSendersLimit)
	if err != nil {
		return nil, err
	}
	return &domain.InboxStats{
		Address:     address,
		TotalEmails: total,
		TopSenders:  topSenders,
	}, nil
}

// Sweep 执行一轮回收：删除过期邮箱及其邮件，并按保留期清理投递统计。
// 操作幂等，连续两次执行时第二次删除零行。
func (s *StatsService) Sweep() error {
	now := time.Now().UTC()

	emails, inboxes, err := s.store.SweepExpired(now)
	if err != nil {
		return err
	}

	var stats int64
	if s.statsRetention > 0 {
		stats, err = s.store.DeleteStatsBefore(now.Add(-s.statsRetention))
		if err != nil {
			return err
		}
	}

	if s.sweptCounter != nil && inboxes > 0 {
		s.sweptCounter.Add(float64(inboxes))
	}

	if emails > 0 || inboxes > 0 || stats > 0 {
		s.logger.Info("sweep completed",
			zap.Int64("expired_inboxes", inboxes),
			zap.Int64("deleted_emails", emails),
			zap.Int64("purged_stats", stats),
		)
	}
	return nil
}
