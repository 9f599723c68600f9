package domain

import "time"

// Inbox 表示一个临时邮箱。地址即主键，全局唯一。
//
// AccessKey 在创建时一次性下发，之后只能通过所有者身份间接访问邮箱。
// UserID 为空表示匿名邮箱，只能凭 AccessKey 访问。
type Inbox struct {
	Address   string    `json:"address" gorm:"primaryKey;type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
	AccessKey string    `json:"-" gorm:"type:varchar(64);not null"`
	ForwardTo string    `json:"forward_to,omitempty" gorm:"type:varchar(255)"`
	UserID    string    `json:"-" gorm:"type:varchar(36);index"`
}

// Expired 判断邮箱在给定时刻是否已过期。
func (i *Inbox) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
