package model

import (
	"time"

	"github.com/lib/pq"
)

// Role 身份角色
type Role string

const (
	RoleCompany Role = "company"
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleCompany, RoleStudent, RoleFaculty:
		return true
	}
	return false
}

// ── 账号状态 ──

const (
	CompanyStatusPending   = "pending"
	CompanyStatusApproved  = "approved"
	CompanyStatusRejected  = "rejected"
	CompanyStatusSuspended = "suspended"

	StudentStatusActive   = "active"
	StudentStatusInactive = "inactive"

	FacultyStatusActive = "active"
)

// Actor 三类身份的统一视图
type Actor interface {
	GetID() string
	GetRole() Role
	GetEmail() string
	GetStatus() string
	GetPasswordHash() string
	DisplayName() string
	// CanLogin 账号是否允许登录
	CanLogin() bool
	// CanAct 账号是否允许执行写操作
	CanAct(requireCompanyApproval bool) bool
}

// Company 企业表，对应 companies
type Company struct {
	ID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string     `gorm:"type:varchar(200);not null"                     json:"name"`
	Email        string     `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Industry     string     `gorm:"type:varchar(100);not null;default:''"          json:"industry"`
	Website      string     `gorm:"type:varchar(255);not null;default:''"          json:"website"`
	ContactPhone string     `gorm:"type:varchar(30);not null;default:''"           json:"contact_phone"`
	Description  string     `gorm:"type:text;not null;default:''"                  json:"description"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Company) TableName() string { return "companies" }

func (c *Company) GetID() string           { return c.ID }
func (c *Company) GetRole() Role           { return RoleCompany }
func (c *Company) GetEmail() string        { return c.Email }
func (c *Company) GetStatus() string       { return c.Status }
func (c *Company) GetPasswordHash() string { return c.PasswordHash }
func (c *Company) DisplayName() string     { return c.Name }

// CanLogin 被拒绝或停用的企业不能登录；待审核企业可登录查看状态
func (c *Company) CanLogin() bool {
	return c.Status == CompanyStatusPending || c.Status == CompanyStatusApproved
}

func (c *Company) CanAct(requireCompanyApproval bool) bool {
	if !requireCompanyApproval {
		return c.CanLogin()
	}
	return c.Status == CompanyStatusApproved
}

// Student 学生表，对应 students
type Student struct {
	ID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string         `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string         `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null"                     json:"-"`
	RollNumber   string         `gorm:"type:varchar(50);not null;default:''"           json:"roll_number"`
	Course       string         `gorm:"type:varchar(100);not null;default:''"          json:"course"`
	Year         int            `gorm:"not null;default:0"                             json:"year"`
	CGPA         float64        `gorm:"column:cgpa;type:numeric(4,2);not null;default:0" json:"cgpa"`
	Phone        string         `gorm:"type:varchar(30);not null;default:''"           json:"phone"`
	Skills       pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"skills"`
	ResumeURL    string         `gorm:"type:varchar(500);not null;default:''"          json:"resume_url"`
	Status       string         `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

func (s *Student) GetID() string           { return s.ID }
func (s *Student) GetRole() Role           { return RoleStudent }
func (s *Student) GetEmail() string        { return s.Email }
func (s *Student) GetStatus() string       { return s.Status }
func (s *Student) GetPasswordHash() string { return s.PasswordHash }
func (s *Student) DisplayName() string     { return s.Name }
func (s *Student) CanLogin() bool          { return s.Status == StudentStatusActive }
func (s *Student) CanAct(bool) bool        { return s.CanLogin() }

// Faculty 教师表，对应 faculty
type Faculty struct {
	ID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string     `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Department   string     `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	Designation  string     `gorm:"type:varchar(100);not null;default:''"          json:"designation"`
	Status       string     `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Faculty) TableName() string { return "faculty" }

func (f *Faculty) GetID() string           { return f.ID }
func (f *Faculty) GetRole() Role           { return RoleFaculty }
func (f *Faculty) GetEmail() string        { return f.Email }
func (f *Faculty) GetStatus() string       { return f.Status }
func (f *Faculty) GetPasswordHash() string { return f.PasswordHash }
func (f *Faculty) DisplayName() string     { return f.Name }
func (f *Faculty) CanLogin() bool          { return f.Status == FacultyStatusActive }
func (f *Faculty) CanAct(bool) bool        { return f.CanLogin() }
