package model

import "time"

// 通知类型
const (
	NotificationNewJob              = "new_job"
	NotificationJobApproved         = "job_approved"
	NotificationJobRejected         = "job_rejected"
	NotificationApplicationReceived = "application_received"
	NotificationApplicationUpdate   = "application_update"
	NotificationStudentHired        = "student_hired"
	NotificationAccountStatus       = "account_status"
	NotificationAnnouncement        = "announcement"
)

// Notification 通知表，对应 notifications
// TargetActorID 为空表示面向整个角色的广播
type Notification struct {
	ID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Type          string    `gorm:"type:varchar(40);not null"                      json:"type"`
	Message       string    `gorm:"type:text;not null"                             json:"message"`
	TargetRole    Role      `gorm:"type:varchar(20);not null"                      json:"target_role"`
	TargetActorID *string   `gorm:"type:uuid"                                      json:"target_actor_id,omitempty"`
	JobID         *string   `gorm:"type:uuid"                                      json:"job_id,omitempty"`
	ApplicationID *string   `gorm:"type:uuid"                                      json:"application_id,omitempty"`
	IsRead        bool      `gorm:"not null;default:false"                         json:"is_read"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// IsBroadcast 是否为角色广播
func (n *Notification) IsBroadcast() bool { return n.TargetActorID == nil }

// NotificationRead 广播通知已读回执，对应 notification_reads
// 定向通知直接使用 Notification.IsRead
type NotificationRead struct {
	NotificationID string    `gorm:"type:uuid;primaryKey"               json:"notification_id"`
	ActorID        string    `gorm:"type:uuid;primaryKey"               json:"actor_id"`
	ReadAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"read_at"`
}

// TableName 指定表名
func (NotificationRead) TableName() string { return "notification_reads" }
