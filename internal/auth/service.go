package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mailfly/backend/internal/auth/token"
	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage"
)

var (
	// ErrInvalidInput 用户名或密码不满足长度要求
	ErrInvalidInput = errors.New("invalid username or password")
	// ErrInvalidCredentials 凭证无效。未知用户名与密码错误返回同一个
	// 错误，避免通过错误差异枚举用户名。
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
	bearerPrefix   = "Bearer "
)

// UserRepository 用户存储接口。
type UserRepository interface {
	CreateUser(user *domain.User) error
	GetUserByUsername(username string) (*domain.User, error)
}

// Service 认证服务：注册、登录与请求方身份解析。
type Service struct {
	users  UserRepository
	tokens *token.Manager
}

// NewService 创建认证服务。
func NewService(users UserRepository, tokens *token.Manager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

// AuthResult 认证成功后返回的凭证信息。
type AuthResult struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Register 用户注册。
func (s *Service) Register(username, password string) (*AuthResult, error) {
	if len(username) < minUsernameLen || len(password) < minPasswordLen {
		return nil, ErrInvalidInput
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login 用户登录。
func (s *Service) Login(username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ResolveCaller 从 Authorization 头解析请求方身份。
//
// 缺失或畸形的头返回空串（匿名），永不报错——匿名调用方
// 仍要能走纯 access key 流程。
func (s *Service) ResolveCaller(authorizationHeader string) string {
	if !strings.HasPrefix(authorizationHeader, bearerPrefix) {
		return ""
	}
	return s.tokens.Verify(strings.TrimPrefix(authorizationHeader, bearerPrefix))
}

func (s *Service) issue(user *domain.User) (*AuthResult, error) {
	bearer, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:    bearer,
		UserID:   user.ID,
		Username: user.Username,
	}, nil
}

// HashPassword 哈希密码。单向、带盐、慢速，只能用于校验。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword 检查密码是否匹配，哈希格式损坏时返回 false 而不是报错。
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
