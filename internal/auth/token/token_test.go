package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestManager_GenerateVerify(t *testing.T) {
	manager := NewManager(testSecret, time.Hour)

	t.Run("签发后校验返回用户ID", func(t *testing.T) {
		tokenString, err := manager.Generate("user-1")
		require.NoError(t, err)
		require.NotEmpty(t, tokenString)

		assert.Equal(t, "user-1", manager.Verify(tokenString))
	})

	t.Run("篡改令牌校验失败", func(t *testing.T) {
		tokenString, err := manager.Generate("user-1")
		require.NoError(t, err)

		tampered := tokenString[:len(tokenString)-2] + "xx"
		assert.Empty(t, manager.Verify(tampered))
	})

	t.Run("畸形令牌校验失败", func(t *testing.T) {
		assert.Empty(t, manager.Verify("not-a-token"))
		assert.Empty(t, manager.Verify(""))
	})

	t.Run("密钥不匹配校验失败", func(t *testing.T) {
		other := NewManager("another-secret-value-of-enough-len", time.Hour)

		tokenString, err := manager.Generate("user-1")
		require.NoError(t, err)

		assert.Empty(t, other.Verify(tokenString))
	})

	t.Run("过期令牌校验失败", func(t *testing.T) {
		shortLived := NewManager(testSecret, time.Millisecond)

		tokenString, err := shortLived.Generate("user-1")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		assert.Empty(t, shortLived.Verify(tokenString))
	})

	t.Run("非法有效期回退默认值", func(t *testing.T) {
		fallback := NewManager(testSecret, 0)

		tokenString, err := fallback.Generate("user-1")
		require.NoError(t, err)

		assert.Equal(t, "user-1", fallback.Verify(tokenString))
	})
}
