package domain

import "time"

// DeliveryStat 记录一次入站投递事件，与 Email 解耦，邮件删除后仍保留。
// 只追加，不更新；仅按时间做保留期清理。
type DeliveryStat struct {
	ID         uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	FromAddr   string    `json:"from_addr" gorm:"type:varchar(255);index"`
	ReceivedAt time.Time `json:"received_at" gorm:"index"`
}

// SenderCount 是按发件人聚合的计数。
type SenderCount struct {
	FromAddr string `json:"from_addr"`
	Count    int64  `json:"count"`
}

// HourCount 是按 UTC 小时桶聚合的计数，hour 取值 0-23。
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// GlobalStats 全站统计快照，每次调用按当前时刻重新计算。
type GlobalStats struct {
	TotalInboxes  int64         `json:"total_inboxes"`
	ActiveInboxes int64         `json:"active_inboxes"`
	TotalEmails   int64         `json:"total_emails"`
	TodayEmails   int64         `json:"today_emails"`
	TopSenders    []SenderCount `json:"top_senders"`
	EmailsByHour  []HourCount   `json:"emails_by_hour"`
}

// InboxStats 单邮箱统计。
type InboxStats struct {
	Address     string        `json:"address"`
	TotalEmails int64         `json:"total_emails"`
	TopSenders  []SenderCount `json:"top_senders"`
}
