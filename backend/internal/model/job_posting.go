package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// JobStatus 岗位状态
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"  // 待审核（新建岗位的初始状态）
	JobStatusActive   JobStatus = "active"   // 已通过，公开可见
	JobStatusRejected JobStatus = "rejected" // 审核未通过
	JobStatusInactive JobStatus = "inactive" // 上线后被下架
	JobStatusDeleted  JobStatus = "deleted"  // 企业软删除
)

// 合法的状态流转
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:  {JobStatusActive, JobStatusRejected, JobStatusDeleted},
	JobStatusActive:   {JobStatusInactive, JobStatusDeleted},
	JobStatusRejected: {JobStatusDeleted},
	JobStatusInactive: {JobStatusDeleted},
}

// CanTransitionTo 判断状态流转是否合法
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, t := range jobTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid 是否为已知状态
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusActive, JobStatusRejected, JobStatusInactive, JobStatusDeleted:
		return true
	}
	return false
}

// 岗位类型
const (
	JobTypeFullTime   = "full-time"
	JobTypePartTime   = "part-time"
	JobTypeInternship = "internship"
	JobTypeContract   = "contract"
)

// JobPosting 岗位表，对应 job_postings
type JobPosting struct {
	ID                  string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CompanyID           string         `gorm:"type:uuid;not null;<-:create"                   json:"company_id"`
	Title               string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Department          string         `gorm:"type:varchar(100);not null"                     json:"department"`
	JobType             string         `gorm:"type:varchar(30);not null"                      json:"job_type"`
	Location            string         `gorm:"type:varchar(200);not null"                     json:"location"`
	Description         string         `gorm:"type:text;not null"                             json:"description"`
	Experience          string         `gorm:"type:varchar(100);not null;default:''"          json:"experience"`
	SalaryRange         string         `gorm:"type:varchar(100);not null;default:''"          json:"salary_range"`
	Skills              pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"skills"`
	Eligibility         string         `gorm:"type:text;not null;default:''"                  json:"eligibility"`
	ApplicationDeadline datatypes.Date `gorm:"type:date;not null"                             json:"application_deadline"`
	Status              JobStatus      `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	RejectReason        string         `gorm:"type:text;not null;default:''"                  json:"reject_reason,omitempty"`
	ModeratedBy         *string        `gorm:"type:uuid"                                      json:"moderated_by,omitempty"`
	ModeratedAt         *time.Time     `json:"moderated_at,omitempty"`
	VersionedModel

	// 关联
	Company *Company `gorm:"foreignKey:CompanyID;references:ID" json:"company,omitempty"`
}

// TableName 指定表名
func (JobPosting) TableName() string { return "job_postings" }

// Deadline 截止日期（00:00 UTC）
func (j *JobPosting) Deadline() time.Time {
	return DateOnly(time.Time(j.ApplicationDeadline))
}

// OpenOn 在给定日期是否仍接受申请：已通过且未过截止日
func (j *JobPosting) OpenOn(today time.Time) bool {
	return j.Status == JobStatusActive && !j.Deadline().Before(DateOnly(today))
}
