package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
)

// ApplicationFilter 申请列表筛选，零值字段不参与过滤
type ApplicationFilter struct {
	StudentID string
	CompanyID string
	JobID     string
	Status    string
	Course    string
	Year      int
	Keyword   string
}

// ApplicationView 申请列表行（关联学生、岗位、企业）
type ApplicationView struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	AppliedAt     time.Time  `json:"applied_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	StudentID     string     `json:"student_id"`
	StudentName   string     `json:"student_name"`
	StudentEmail  string     `json:"student_email"`
	StudentCourse string     `json:"student_course"`
	StudentYear   int        `json:"student_year"`
	StudentCGPA   float64    `gorm:"column:student_cgpa" json:"student_cgpa"`
	ResumeURL     string     `json:"resume_url"`
	JobID         string     `json:"job_id"`
	JobTitle      string     `json:"job_title"`
	JobType       string     `json:"job_type"`
	JobLocation   string     `json:"job_location"`
	JobStatus     string     `json:"job_status"`
	CompanyID     string     `json:"company_id"`
	CompanyName   string     `json:"company_name"`
}

// ApplicationRepository 申请数据访问接口
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	// GetForCompany 仅当申请对应的岗位属于 companyID 时返回，否则 gorm.ErrRecordNotFound
	GetForCompany(ctx context.Context, id, companyID string) (*model.Application, error)
	Exists(ctx context.Context, studentID, jobID string) (bool, error)
	CountByJob(ctx context.Context, jobID string) (int64, error)
	// Decide 仅在状态仍为 pending 时写入结果，返回是否命中
	Decide(ctx context.Context, id, status, decidedBy string, at time.Time) (bool, error)
	List(ctx context.Context, filter ApplicationFilter, offset, limit int) ([]ApplicationView, int64, error)
	Count(ctx context.Context, filter ApplicationFilter) (int64, error)
}

type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo 创建 ApplicationRepository 实例
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) GetForCompany(ctx context.Context, id, companyID string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Joins("JOIN job_postings ON job_postings.id = applications.job_id").
		Where("applications.id = ? AND job_postings.company_id = ?", id, companyID).
		Preload("Job").
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) Exists(ctx context.Context, studentID, jobID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("student_id = ? AND job_id = ?", studentID, jobID).
		Count(&n).Error
	return n > 0, err
}

func (r *applicationRepo) CountByJob(ctx context.Context, jobID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("job_id = ?", jobID).
		Count(&n).Error
	return n, err
}

func (r *applicationRepo) Decide(ctx context.Context, id, status, decidedBy string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.ApplicationStatusPending).
		Updates(map[string]interface{}{
			"status":     status,
			"decided_by": decidedBy,
			"decided_at": at,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *applicationRepo) filtered(ctx context.Context, f ApplicationFilter) *gorm.DB {
	db := r.db.WithContext(ctx).
		Table("applications a").
		Joins("JOIN students s ON s.id = a.student_id").
		Joins("JOIN job_postings j ON j.id = a.job_id").
		Joins("JOIN companies c ON c.id = j.company_id")

	if f.StudentID != "" {
		db = db.Where("a.student_id = ?", f.StudentID)
	}
	if f.CompanyID != "" {
		db = db.Where("j.company_id = ?", f.CompanyID)
	}
	if f.JobID != "" {
		db = db.Where("a.job_id = ?", f.JobID)
	}
	if f.Status != "" {
		db = db.Where("a.status = ?", f.Status)
	}
	if f.Course != "" {
		db = db.Where("s.course = ?", f.Course)
	}
	if f.Year > 0 {
		db = db.Where("s.year = ?", f.Year)
	}
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		db = db.Where("(s.name ILIKE ? OR j.title ILIKE ? OR c.name ILIKE ?)", kw, kw, kw)
	}
	return db
}

const applicationViewColumns = `a.id, a.status, a.applied_at, a.decided_at,
	s.id AS student_id, s.name AS student_name, s.email AS student_email,
	s.course AS student_course, s.year AS student_year, s.cgpa AS student_cgpa, s.resume_url,
	j.id AS job_id, j.title AS job_title, j.job_type, j.location AS job_location, j.status AS job_status,
	c.id AS company_id, c.name AS company_name`

func (r *applicationRepo) List(ctx context.Context, filter ApplicationFilter, offset, limit int) ([]ApplicationView, int64, error) {
	var rows []ApplicationView
	var total int64

	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db := r.filtered(ctx, filter).
		Select(applicationViewColumns).
		Order("a.applied_at DESC")
	if limit > 0 {
		db = db.Offset(offset).Limit(limit)
	}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *applicationRepo) Count(ctx context.Context, filter ApplicationFilter) (int64, error) {
	var n int64
	err := r.filtered(ctx, filter).Count(&n).Error
	return n, err
}
