package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL 承载令牌的有效期。没有刷新与吊销机制：密钥一旦泄露，
// 所有存活令牌同时失效保障，这是已接受的局限而非待修缺陷。
const DefaultTTL = 30 * 24 * time.Hour

// Manager 签发并校验自描述的承载令牌。
//
// 令牌是 HMAC-SHA256 签名的结构化载荷：sub 为用户 ID，带签发与过期
// 时间。载荷只做完整性保护，不加密——任何人都能读出 sub，但没有
// 密钥无法伪造或延长有效期。
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager 创建令牌管理器。
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate 为指定用户签发令牌。
func (m *Manager) Generate(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify 校验令牌并返回用户 ID。
//
// 始终 fail closed：结构损坏、签名不符、已过期一律返回空串，
// 不向调用方抛错——无身份的调用方仍要能走纯 access key 流程。
func (m *Manager) Verify(tokenString string) string {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ""
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return ""
	}
	return claims.Subject
}
