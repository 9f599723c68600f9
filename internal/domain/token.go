package domain

import "time"

// APIToken 管理面 API 令牌。只作用于全局 /api 闸门，不授予任何邮箱所有权。
type APIToken struct {
	Token     string    `json:"token" gorm:"primaryKey;type:varchar(64)"`
	Name      string    `json:"name" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at"`
}
