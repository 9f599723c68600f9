package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
	"mailfly/backend/internal/storage/memory"
)

func newTestInboxService(ttl time.Duration) (*InboxService, *memory.Store) {
	store := memory.NewStore()
	return NewInboxService(store, []string{"temp.mail", "test.com"}, ttl, zap.NewNop()), store
}

func TestInboxService_Create(t *testing.T) {
	svc, _ := newTestInboxService(24 * time.Hour)

	t.Run("创建随机名称邮箱成功", func(t *testing.T) {
		result, err := svc.Create("", "", "")

		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(result.Address, "@temp.mail"))
		assert.True(t, strings.HasPrefix(result.AccessKey, "key_"))
		assert.True(t, result.ExpiresAt.After(time.Now()))
	})

	t.Run("创建自定义前缀邮箱成功", func(t *testing.T) {
		result, err := svc.Create("Custom-User", "test.com", "")

		require.NoError(t, err)
		assert.Equal(t, "customuser@test.com", result.Address)
	})

	t.Run("前缀过短时回退为随机名称", func(t *testing.T) {
		result, err := svc.Create("ab", "", "")

		require.NoError(t, err)
		local := strings.Split(result.Address, "@")[0]
		assert.NotEqual(t, "ab", local)
		assert.GreaterOrEqual(t, len(local), 3)
	})

	t.Run("不允许的域名回退到默认域名", func(t *testing.T) {
		result, err := svc.Create("fallback", "evil.com", "")

		require.NoError(t, err)
		assert.Equal(t, "fallback@temp.mail", result.Address)
	})

	t.Run("地址冲突时重试一次", func(t *testing.T) {
		first, err := svc.Create("duplicate", "", "")
		require.NoError(t, err)

		second, err := svc.Create("duplicate", "", "")
		require.NoError(t, err)
		assert.NotEqual(t, first.Address, second.Address)
		assert.True(t, strings.HasPrefix(second.Address, "duplicate"))
	})

	t.Run("归属用户的邮箱记录归属者", func(t *testing.T) {
		result, err := svc.Create("owned", "", "user-1")
		require.NoError(t, err)

		assert.True(t, svc.CheckAccess(result.Address, "", "user-1"))
	})
}

func TestInboxService_GetEmails(t *testing.T) {
	svc, store := newTestInboxService(24 * time.Hour)

	created, err := svc.Create("reader", "", "")
	require.NoError(t, err)

	t.Run("未过期邮箱返回空邮件列表", func(t *testing.T) {
		view, err := svc.GetEmails(created.Address)

		require.NoError(t, err)
		assert.Equal(t, created.Address, view.Address)
		assert.Empty(t, view.Emails)
	})

	t.Run("过期邮箱等同于不存在", func(t *testing.T) {
		expired := &domain.Inbox{
			Address:   "gone@temp.mail",
			CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
			ExpiresAt: time.Now().UTC().Add(-time.Hour),
			AccessKey: "key_expired",
		}
		require.NoError(t, store.CreateInbox(expired))

		_, err := svc.GetEmails("gone@temp.mail")
		assert.ErrorIs(t, err, storage.ErrInboxNotFound)
	})

	t.Run("不存在的邮箱返回未找到", func(t *testing.T) {
		_, err := svc.GetEmails("nobody@temp.mail")
		assert.ErrorIs(t, err, storage.ErrInboxNotFound)
	})
}

func TestInboxService_Renew(t *testing.T) {
	svc, store := newTestInboxService(24 * time.Hour)

	t.Run("续期严格延长有效期", func(t *testing.T) {
		created, err := svc.Create("fresh", "", "")
		require.NoError(t, err)

		result, err := svc.Renew(created.Address)
		require.NoError(t, err)
		assert.True(t, result.ExpiresAt.After(time.Now()))
	})

	t.Run("过期但未回收的邮箱可以续期复活", func(t *testing.T) {
		expired := &domain.Inbox{
			Address:   "revive@temp.mail",
			CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
			ExpiresAt: time.Now().UTC().Add(-time.Hour),
			AccessKey: "key_revive",
		}
		require.NoError(t, store.CreateInbox(expired))

		_, err := svc.GetEmails("revive@temp.mail")
		assert.ErrorIs(t, err, storage.ErrInboxNotFound)

		result, err := svc.Renew("revive@temp.mail")
		require.NoError(t, err)
		assert.True(t, result.ExpiresAt.After(time.Now()))

		view, err := svc.GetEmails("revive@temp.mail")
		require.NoError(t, err)
		assert.Equal(t, "revive@temp.mail", view.Address)
	})

	t.Run("不存在的邮箱无法续期", func(t *testing.T) {
		_, err := svc.Renew("nobody@temp.mail")
		assert.ErrorIs(t, err, storage.ErrInboxNotFound)
	})
}

func TestInboxService_SetForward(t *testing.T) {
	svc, _ := newTestInboxService(24 * time.Hour)

	created, err := svc.Create("forwarder", "", "")
	require.NoError(t, err)

	t.Run("设置转发地址成功", func(t *testing.T) {
		result, err := svc.SetForward(created.Address, "external@example.com")
		require.NoError(t, err)
		assert.Equal(t, "external@example.com", result.ForwardTo)

		view, err := svc.GetEmails(created.Address)
		require.NoError(t, err)
		assert.Equal(t, "external@example.com", view.ForwardTo)
	})

	t.Run("空地址清除转发", func(t *testing.T) {
		result, err := svc.SetForward(created.Address, "")
		require.NoError(t, err)
		assert.Empty(t, result.ForwardTo)
	})

	t.Run("不存在的邮箱无法设置转发", func(t *testing.T) {
		_, err := svc.SetForward("nobody@temp.mail", "x@example.com")
		assert.ErrorIs(t, err, storage.ErrInboxNotFound)
	})
}

func TestInboxService_Delete(t *testing.T) {
	svc, store := newTestInboxService(24 * time.Hour)

	created, err := svc.Create("victim", "", "")
	require.NoError(t, err)

	email := &domain.Email{
		ID:           "mail-1",
		InboxAddress: created.Address,
		FromAddr:     "sender@example.com",
		Subject:      "hello",
		ReceivedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.SaveEmailWithStat(email, &domain.DeliveryStat{
		FromAddr:   email.FromAddr,
		ReceivedAt: email.ReceivedAt,
	}))

	t.Run("删除邮箱连带删除邮件", func(t *testing.T) {
		require.NoError(t, svc.Delete(created.Address))

		_, err := store.GetInbox(created.Address)
		assert.ErrorIs(t, err, storage.ErrInboxNotFound)
		_, err = store.GetEmail("mail-1")
		assert.ErrorIs(t, err, storage.ErrEmailNotFound)
	})

	t.Run("重复删除幂等", func(t *testing.T) {
		assert.NoError(t, svc.Delete(created.Address))
	})
}

func TestInboxService_CheckAccess(t *testing.T) {
	svc, store := newTestInboxService(24 * time.Hour)

	anon, err := svc.Create("anon", "", "")
	require.NoError(t, err)
	owned, err := svc.Create("owned", "", "user-7")
	require.NoError(t, err)

	t.Run("正确的访问密钥放行", func(t *testing.T) {
		assert.True(t, svc.CheckAccess(anon.Address, anon.AccessKey, ""))
	})

	t.Run("错误的密钥拒绝", func(t *testing.T) {
		assert.False(t, svc.CheckAccess(anon.Address, "key_wrong", ""))
	})

	t.Run("归属者身份放行", func(t *testing.T) {
		assert.True(t, svc.CheckAccess(owned.Address, "", "user-7"))
	})

	t.Run("其他用户身份拒绝", func(t *testing.T) {
		assert.False(t, svc.CheckAccess(owned.Address, "", "user-8"))
	})

	t.Run("匿名邮箱不接受任何身份凭据", func(t *testing.T) {
		assert.False(t, svc.CheckAccess(anon.Address, "", "user-7"))
	})

	t.Run("不存在的邮箱一律拒绝", func(t *testing.T) {
		assert.False(t, svc.CheckAccess("nobody@temp.mail", anon.AccessKey, "user-7"))
	})

	t.Run("过期不影响访问判定", func(t *testing.T) {
		expired := &domain.Inbox{
			Address:   "stale@temp.mail",
			CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
			ExpiresAt: time.Now().UTC().Add(-time.Hour),
			AccessKey: "key_stale",
		}
		require.NoError(t, store.CreateInbox(expired))

		assert.True(t, svc.CheckAccess("stale@temp.mail", "key_stale", ""))
	})
}
