package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
	"mailfly/backend/internal/storage/memory"
)

func seedEmail(t *testing.T, store *memory.Store, address, from string, receivedAt time.Time) {
	t.Helper()
	require.NoError(t, store.SaveEmailWithStat(
		&domain.Email{
			ID:           fmt.Sprintf("mail-%s-%d", from, receivedAt.UnixNano()),
			InboxAddress: address,
			FromAddr:     from,
			Subject:      "x",
			ReceivedAt:   receivedAt,
		},
		&domain.DeliveryStat{FromAddr: from, ReceivedAt: receivedAt},
	))
}

func TestStatsService_Global(t *testing.T) {
	store := memory.NewStore()
	inboxes := NewInboxService(store, []string{"temp.mail"}, 24*time.Hour, zap.NewNop())
	svc := NewStatsService(store, 30*24*time.Hour, zap.NewNop())

	active, err := inboxes.Create("active", "", "")
	require.NoError(t, err)
	require.NoError(t, store.CreateInbox(&domain.Inbox{
		Address:   "expired@temp.mail",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
		AccessKey: "key_x",
	}))

	now := time.Now().UTC()
	seedEmail(t, store, active.Address, "alice@example.com", now)
	seedEmail(t, store, active.Address, "alice@example.com", now.Add(-time.Minute))
	seedEmail(t, store, active.Address, "carol@example.com", now.Add(-23*time.Hour))
	seedEmail(t, store, active.Address, "bob@example.com", now.Add(-48*time.Hour))

	stats, err := svc.Global()
	require.NoError(t, err)

	t.Run("邮箱总量与活跃量", func(t *testing.T) {
		assert.Equal(t, int64(2), stats.TotalInboxes)
		assert.Equal(t, int64(1), stats.ActiveInboxes)
	})

	t.Run("邮件总量", func(t *testing.T) {
		assert.Equal(t, int64(4), stats.TotalEmails)
	})

	t.Run("今日量是自调用时刻回溯24小时的滚动窗口", func(t *testing.T) {
		// 23 小时前的邮件在窗口内，48 小时前的不在
		assert.Equal(t, int64(3), stats.TodayEmails)
	})

	t.Run("发件人排行按数量降序", func(t *testing.T) {
		require.NotEmpty(t, stats.TopSenders)
		assert.Equal(t, "alice@example.com", stats.TopSenders[0].FromAddr)
		assert.Equal(t, int64(2), stats.TopSenders[0].Count)
	})

	t.Run("按小时分布聚合全部统计", func(t *testing.T) {
		var total int64
		for _, hc := range stats.EmailsByHour {
			total += hc.Count
		}
		assert.Equal(t, int64(4), total)
	})
}

func TestStatsService_TopSendersLimit(t *testing.T) {
	store := memory.NewStore()
	inboxes := NewInboxService(store, []string{"temp.mail"}, 24*time.Hour, zap.NewNop())
	svc := NewStatsService(store, 0, zap.NewNop())

	box, err := inboxes.Create("crowded", "", "")
	require.NoError(t, err)

	now := time.Now().UTC()
	for i := 0; i < 7; i++ {
		seedEmail(t, store, box.Address, fmt.Sprintf("sender%d@example.com", i), now)
	}

	t.Run("全局排行最多返回5个发件人", func(t *testing.T) {
		stats, err := svc.Global()
		require.NoError(t, err)
		assert.Len(t, stats.TopSenders, 5)
	})

	t.Run("单邮箱排行最多返回5个发件人", func(t *testing.T) {
		stats, err := svc.Inbox(box.Address)
		require.NoError(t, err)
		assert.Len(t, stats.TopSenders, 5)
	})
}

func TestStatsService_Inbox(t *testing.T) {
	store := memory.NewStore()
	inboxes := NewInboxService(store, []string{"temp.mail"}, 24*time.Hour, zap.NewNop())
	svc := NewStatsService(store, 0, zap.NewNop())

	a, err := inboxes.Create("boxa", "", "")
	require.NoError(t, err)
	b, err := inboxes.Create("boxb", "", "")
	require.NoError(t, err)

	now := time.Now().UTC()
	seedEmail(t, store, a.Address, "alice@example.com", now)
	seedEmail(t, store, a.Address, "bob@example.com", now)
	seedEmail(t, store, b.Address, "carol@example.com", now)

	t.Run("只统计本邮箱的邮件", func(t *testing.T) {
		stats, err := svc.Inbox(a.Address)
		require.NoError(t, err)

		assert.Equal(t, a.Address, stats.Address)
		assert.Equal(t, int64(2), stats.TotalEmails)
		assert.Len(t, stats.TopSenders, 2)
	})

	t.Run("邮箱不存在返回未找到", func(t *testing.T) {
		_, err := svc.Inbox("nobody@temp.mail")
		assert.ErrorIs(t, err, storage.ErrInboxNotFound)
	})

	t.Run("已过期但未回收的邮箱仍可统计", func(t *testing.T) {
		require.NoError(t, store.CreateInbox(&domain.Inbox{
			Address:   "stale@temp.mail",
			CreatedAt: now.Add(-48 * time.Hour),
			ExpiresAt: now.Add(-time.Hour),
			AccessKey: "key_s",
		}))
		seedEmail(t, store, "stale@temp.mail", "dave@example.com", now.Add(-2*time.Hour))

		stats, err := svc.Inbox("stale@temp.mail")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.TotalEmails)
	})
}

func TestStatsService_Sweep(t *testing.T) {
	store := memory.NewStore()
	svc := NewStatsService(store, 30*24*time.Hour, zap.NewNop())

	now := time.Now().UTC()
	require.NoError(t, store.CreateInbox(&domain.Inbox{
		Address:   "doomed@temp.mail",
		CreatedAt: now.Add(-48 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
		AccessKey: "key_d",
	}))
	require.NoError(t, store.CreateInbox(&domain.Inbox{
		Address:   "alive@temp.mail",
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
		AccessKey: "key_a",
	}))
	seedEmail(t, store, "doomed@temp.mail", "s@e.com", now.Add(-2*time.Hour))
	seedEmail(t, store, "alive@temp.mail", "s@e.com", now)
	// 超过保留期的陈旧统计
	seedEmail(t, store, "alive@temp.mail", "ancient@e.com", now.Add(-60*24*time.Hour))

	t.Run("回收过期邮箱及其邮件", func(t *testing.T) {
		require.NoError(t, svc.Sweep())

		_, err := store.GetInbox("doomed@temp.mail")
		assert.ErrorIs(t, err, storage.ErrInboxNotFound)

		emails, err := store.ListEmails("doomed@temp.mail")
		require.NoError(t, err)
		assert.Empty(t, emails)

		_, err = store.GetInbox("alive@temp.mail")
		assert.NoError(t, err)
	})

	t.Run("陈旧统计按保留期清理", func(t *testing.T) {
		total, err := store.CountStats()
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("连续执行幂等", func(t *testing.T) {
		emails, inboxes, err := store.SweepExpired(time.Now().UTC())
		require.NoError(t, err)
		assert.Zero(t, emails)
		assert.Zero(t, inboxes)
	})
}
