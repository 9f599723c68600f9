package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func TestLoad(t *testing.T) {
	t.Run("缺少域名配置启动失败", func(t *testing.T) {
		t.Setenv("MAILFLY_MAILBOX_DOMAINS", "")
		t.Setenv("MAILFLY_JWT_SECRET", testJWTSecret)

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("密钥过短启动失败", func(t *testing.T) {
		t.Setenv("MAILFLY_MAILBOX_DOMAINS", "temp.mail")
		t.Setenv("MAILFLY_JWT_SECRET", "too-short")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("默认值填充", func(t *testing.T) {
		t.Setenv("MAILFLY_MAILBOX_DOMAINS", "temp.mail")
		t.Setenv("MAILFLY_JWT_SECRET", testJWTSecret)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 24*time.Hour, cfg.Mailbox.TTL)
		assert.Equal(t, 720*time.Hour, cfg.Mailbox.StatsRetention)
		assert.Equal(t, ":25", cfg.SMTP.BindAddr)
		assert.Equal(t, int64(10*1024*1024), cfg.SMTP.MaxMessageBytes)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Empty(t, cfg.Database.Driver)
		assert.Equal(t, 30*24*time.Hour, cfg.JWT.TTL)
		assert.Zero(t, cfg.RateLimit.CreatePerHour)
	})

	t.Run("域名解析为小写列表", func(t *testing.T) {
		t.Setenv("MAILFLY_MAILBOX_DOMAINS", "Temp.Mail, second.example ,TEST.com")
		t.Setenv("MAILFLY_JWT_SECRET", testJWTSecret)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"temp.mail", "second.example", "test.com"}, cfg.Mailbox.Domains)
	})

	t.Run("SMTP域名默认取首个邮箱域名", func(t *testing.T) {
		t.Setenv("MAILFLY_MAILBOX_DOMAINS", "temp.mail,test.com")
		t.Setenv("MAILFLY_JWT_SECRET", testJWTSecret)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "temp.mail", cfg.SMTP.Domain)

		t.Setenv("MAILFLY_SMTP_DOMAIN", "mx.temp.mail")
		cfg, err = Load()
		require.NoError(t, err)
		assert.Equal(t, "mx.temp.mail", cfg.SMTP.Domain)
	})

	t.Run("环境变量覆盖默认值", func(t *testing.T) {
		t.Setenv("MAILFLY_MAILBOX_DOMAINS", "temp.mail")
		t.Setenv("MAILFLY_JWT_SECRET", testJWTSecret)
		t.Setenv("MAILFLY_MAILBOX_TTL", "1h")
		t.Setenv("MAILFLY_SERVER_PORT", "9090")
		t.Setenv("MAILFLY_RATELIMIT_CREATE_PER_HOUR", "20")
		t.Setenv("MAILFLY_SMTP_RELAY_ADDR", "relay.example.com:587")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, time.Hour, cfg.Mailbox.TTL)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 20, cfg.RateLimit.CreatePerHour)
		assert.Equal(t, "relay.example.com:587", cfg.SMTP.RelayAddr)
	})

	t.Run("非法TTL报错", func(t *testing.T) {
		t.Setenv("MAILFLY_MAILBOX_DOMAINS", "temp.mail")
		t.Setenv("MAILFLY_JWT_SECRET", testJWTSecret)
		t.Setenv("MAILFLY_MAILBOX_TTL", "not-a-duration")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList("a, b,"))
	assert.Empty(t, parseList("  "))
}
