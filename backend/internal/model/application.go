package model

import "time"

// 申请状态
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusHired    = "hired"
	ApplicationStatusRejected = "rejected"
)

// Application 申请表，对应 applications，(student_id, job_id) 唯一
type Application struct {
	ID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID string     `gorm:"type:uuid;not null;<-:create"                   json:"student_id"`
	JobID     string     `gorm:"type:uuid;not null;<-:create"                   json:"job_id"`
	Status    string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	AppliedAt time.Time  `gorm:"not null"                                       json:"applied_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	DecidedBy *string    `gorm:"type:uuid" json:"decided_by,omitempty"`
	BaseModel

	// 关联
	Student *Student    `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	Job     *JobPosting `gorm:"foreignKey:JobID;references:ID"     json:"job,omitempty"`
}

// TableName 指定表名
func (Application) TableName() string { return "applications" }

// IsDecided 是否已处理（hired / rejected 均为终态）
func (a *Application) IsDecided() bool {
	return a.Status != ApplicationStatusPending
}
