package domain

import "time"

// Email 表示邮箱内的一封邮件。只由投递管道创建，之后不再变更。
//
// InboxAddress 是弱引用：没有外键级联，清理由删除与回收逻辑显式完成。
type Email struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	InboxAddress string    `json:"inbox_address" gorm:"type:varchar(255);index;not null"`
	FromAddr     string    `json:"from_addr" gorm:"type:varchar(255)"`
	Subject      string    `json:"subject" gorm:"type:varchar(500)"`
	Body         string    `json:"body" gorm:"type:text"` // 净化后的展示正文，HTML 安全
	Raw          string    `json:"-" gorm:"type:text"`    // 原始字节流全文
	ReceivedAt   time.Time `json:"received_at" gorm:"index"`
}

// EmailSummary 是邮件列表接口返回的摘要视图，不携带正文。
type EmailSummary struct {
	ID         string    `json:"id"`
	FromAddr   string    `json:"from_addr"`
	Subject    string    `json:"subject"`
	ReceivedAt time.Time `json:"received_at"`
}

// Summary 返回邮件的摘要视图。
func (e *Email) Summary() EmailSummary {
	return EmailSummary{
		ID:         e.ID,
		FromAddr:   e.FromAddr,
		Subject:    e.Subject,
		ReceivedAt: e.ReceivedAt,
	}
}
