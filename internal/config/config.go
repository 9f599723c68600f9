package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数。
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// MailboxConfig 定义临时邮箱的核心业务配置。
type MailboxConfig struct {
	Domains        []string      // 允许创建邮箱的域名列表，启动时必须非空
	TTL            time.Duration // 邮箱生存时间，创建与续期都以此为准
	StatsRetention time.Duration // 投递统计记录的保留期，回收时按时间清理
}

// SMTPConfig 定义 SMTP 接收与转发配置。
type SMTPConfig struct {
	BindAddr        string // SMTP 服务监听地址，默认 ":25"
	Domain          string // HELO/EHLO 响应使用的域名
	RelayAddr       string // 转发出站中继地址 "host:port"，留空禁用转发
	MaxMessageBytes int64  // 单封邮件大小上限，默认 10MB
}

// AdminConfig 定义管理面配置。
type AdminConfig struct {
	Token string // 全局管理令牌，留空时不启用 /api 全局闸门
}

// CORSConfig 定义跨域资源共享配置。
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig 定义日志系统配置。
type LogConfig struct {
	Level       string // debug, info, warn, error
	Development bool   // 开发模式：彩色控制台输出
	File        string // 日志文件路径，留空只输出到控制台
}

// DatabaseConfig 定义数据库连接配置（postgres 或 mysql），留空使用内存存储。
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig 定义 Redis 配置，用于邮箱创建限流计数，留空使用进程内计数。
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// JWTConfig 定义承载令牌配置。
type JWTConfig struct {
	Secret string        // 签名密钥，必须至少 32 字符
	TTL    time.Duration // 令牌有效期，默认 30 天
}

// RateLimitConfig 定义邮箱创建限流配置。
type RateLimitConfig struct {
	CreatePerHour int // 单个 IP 每小时最多创建的邮箱数，0 表示不限
}

// Config 是系统配置的根结构体。
type Config struct {
	Server    ServerConfig
	Mailbox   MailboxConfig
	SMTP      SMTPConfig
	Admin     AdminConfig
	CORS      CORSConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

// Load 从环境变量和 .env 文件加载系统配置。
//
// 优先级从高到低：系统环境变量、.env 文件、默认值。
// 环境变量前缀 MAILFLY_，如 MAILFLY_MAILBOX_DOMAINS、MAILFLY_JWT_SECRET。
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("mailfly")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("mailbox.domains", "")
	v.SetDefault("mailbox.ttl", "24h")
	v.SetDefault("mailbox.stats_retention", "720h") // 30 天
	v.SetDefault("smtp.bind_addr", ":25")
	v.SetDefault("smtp.domain", "")
	v.SetDefault("smtp.relay_addr", "")
	v.SetDefault("smtp.max_message_bytes", 10*1024*1024)
	v.SetDefault("admin.token", "")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("database.driver", "") // 默认为空，使用内存存储
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", "720h") // 30 天
	v.SetDefault("ratelimit.create_per_hour", 0)

	domains := parseDomains(v.GetString("mailbox.domains"))
	if len(domains) == 0 {
		return nil, fmt.Errorf("mailbox.domains must not be empty: set MAILFLY_MAILBOX_DOMAINS")
	}

	ttl, err := time.ParseDuration(v.GetString("mailbox.ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid mailbox.ttl: %w", err)
	}

	statsRetention, err := time.ParseDuration(v.GetString("mailbox.stats_retention"))
	if err != nil {
		return nil, fmt.Errorf("invalid mailbox.stats_retention: %w", err)
	}

	jwtSecret := v.GetString("jwt.secret")
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("jwt.secret must be at least 32 characters: set MAILFLY_JWT_SECRET")
	}

	jwtTTL, err := time.ParseDuration(v.GetString("jwt.ttl"))
	if err != nil {
		jwtTTL = 30 * 24 * time.Hour
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	corsOrigins := parseList(v.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	smtpDomain := v.GetString("smtp.domain")
	if smtpDomain == "" {
		smtpDomain = domains[0]
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Mailbox: MailboxConfig{
			Domains:        domains,
			TTL:            ttl,
			StatsRetention: statsRetention,
		},
		SMTP: SMTPConfig{
			BindAddr:        v.GetString("smtp.bind_addr"),
			Domain:          smtpDomain,
			RelayAddr:       v.GetString("smtp.relay_addr"),
			MaxMessageBytes: v.GetInt64("smtp.max_message_bytes"),
		},
		Admin: AdminConfig{
			Token: v.GetString("admin.token"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			DSN:             v.GetString("database.dsn"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
			TTL:    jwtTTL,
		},
		RateLimit: RateLimitConfig{
			CreatePerHour: v.GetInt("ratelimit.create_per_hour"),
		},
	}

	return cfg, nil
}

// parseDomains 将逗号分隔的域名字符串解析为小写域名数组。
func parseDomains(value string) []string {
	out := parseList(value)
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}

// parseList 将逗号分隔的字符串解析为字符串切片，去除空白项。
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件，不存在时静默跳过。
// 已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}
	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
