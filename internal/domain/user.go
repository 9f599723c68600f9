package domain

import "time"

// User 表示注册用户的业务实体。注册后不可变，核心层永不删除。
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"` // 不返回给前端
	CreatedAt    time.Time `json:"created_at"`
}
