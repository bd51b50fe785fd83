package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
)

// JobFilter 岗位列表筛选，零值字段不参与过滤
type JobFilter struct {
	Statuses      []model.JobStatus
	ExcludeStatus model.JobStatus
	CompanyID     string
	CompanyStatus string
	JobType       string
	Location      string
	Keyword       string
	// OpenOn 非空时只返回截止日期不早于该日的岗位
	OpenOn *time.Time
}

// JobListItem 岗位 + 企业名称 + 实时申请数
type JobListItem struct {
	model.JobPosting
	CompanyName      string `json:"company_name"`
	ApplicationCount int64  `json:"application_count"`
}

// JobRepository 岗位数据访问接口
type JobRepository interface {
	Create(ctx context.Context, job *model.JobPosting) error
	GetByID(ctx context.Context, id string) (*model.JobPosting, error)
	// GetOwned 仅当岗位属于 companyID 时返回，否则 gorm.ErrRecordNotFound
	GetOwned(ctx context.Context, id, companyID string) (*model.JobPosting, error)
	GetItem(ctx context.Context, id string, filter JobFilter) (*JobListItem, error)
	List(ctx context.Context, filter JobFilter, offset, limit int) ([]JobListItem, int64, error)
	// Update 按版本号更新可变字段，版本不一致返回 ErrOptimisticLock
	Update(ctx context.Context, job *model.JobPosting) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter JobFilter) (int64, error)
}

type jobRepo struct {
	db *gorm.DB
}

// NewJobRepo 创建 JobRepository 实例
func NewJobRepo(db *gorm.DB) JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, job *model.JobPosting) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*model.JobPosting, error) {
	var job model.JobPosting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) GetOwned(ctx context.Context, id, companyID string) (*model.JobPosting, error) {
	var job model.JobPosting
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// filtered 构造带企业关联与筛选条件的基础查询
func (r *jobRepo) filtered(ctx context.Context, f JobFilter) *gorm.DB {
	db := r.db.WithContext(ctx).
		Table("job_postings").
		Joins("JOIN companies ON companies.id = job_postings.company_id")

	if len(f.Statuses) > 0 {
		db = db.Where("job_postings.status IN ?", f.Statuses)
	}
	if f.ExcludeStatus != "" {
		db = db.Where("job_postings.status <> ?", f.ExcludeStatus)
	}
	if f.CompanyID != "" {
		db = db.Where("job_postings.company_id = ?", f.CompanyID)
	}
	if f.CompanyStatus != "" {
		db = db.Where("companies.status = ?", f.CompanyStatus)
	}
	if f.JobType != "" {
		db = db.Where("job_postings.job_type = ?", f.JobType)
	}
	if f.Location != "" {
		db = db.Where("job_postings.location ILIKE ?", "%"+f.Location+"%")
	}
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		db = db.Where("(job_postings.title ILIKE ? OR job_postings.description ILIKE ? OR companies.name ILIKE ?)", kw, kw, kw)
	}
	if f.OpenOn != nil {
		db = db.Where("job_postings.application_deadline >= ?", model.DateOnly(*f.OpenOn))
	}
	return db
}

const jobItemColumns = `job_postings.*, companies.name AS company_name,
	(SELECT COUNT(*) FROM applications a WHERE a.job_id = job_postings.id) AS application_count`

func (r *jobRepo) GetItem(ctx context.Context, id string, filter JobFilter) (*JobListItem, error) {
	var items []JobListItem
	err := r.filtered(ctx, filter).
		Select(jobItemColumns).
		Where("job_postings.id = ?", id).
		Limit(1).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &items[0], nil
}

func (r *jobRepo) List(ctx context.Context, filter JobFilter, offset, limit int) ([]JobListItem, int64, error) {
	var items []JobListItem
	var total int64

	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.filtered(ctx, filter).
		Select(jobItemColumns).
		Order("job_postings.created_at DESC").
		Offset(offset).Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *jobRepo) Update(ctx context.Context, job *model.JobPosting) error {
	oldVersion := job.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.JobPosting{}).
		Where("id = ? AND version = ?", job.ID, oldVersion).
		Updates(map[string]interface{}{
			"title":                job.Title,
			"department":           job.Department,
			"job_type":             job.JobType,
			"location":             job.Location,
			"description":          job.Description,
			"experience":           job.Experience,
			"salary_range":         job.SalaryRange,
			"skills":               job.Skills,
			"eligibility":          job.Eligibility,
			"application_deadline": job.ApplicationDeadline,
			"status":               job.Status,
			"reject_reason":        job.RejectReason,
			"moderated_by":         job.ModeratedBy,
			"moderated_at":         job.ModeratedAt,
			"updated_at":           now,
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	job.Version = oldVersion + 1
	job.UpdatedAt = now
	return nil
}

func (r *jobRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.JobPosting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *jobRepo) Count(ctx context.Context, filter JobFilter) (int64, error) {
	var n int64
	err := r.filtered(ctx, filter).Count(&n).Error
	return n, err
}
