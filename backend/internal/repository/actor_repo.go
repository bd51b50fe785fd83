package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
)

// CompanyFilter 企业列表筛选
type CompanyFilter struct {
	Status  string
	Keyword string
}

// StudentFilter 学生列表筛选
type StudentFilter struct {
	Year    int
	Course  string
	Status  string
	Keyword string
}

// StudentSummary 学生 + 申请统计
type StudentSummary struct {
	model.Student
	TotalApplications int64 `json:"total_applications"`
	Offers            int64 `json:"offers"`
}

// ActorRepository 身份数据访问接口（企业 / 学生 / 教师）
// 账号只变更状态，不做物理删除
type ActorRepository interface {
	FindByID(ctx context.Context, role model.Role, id string) (model.Actor, error)
	FindByEmail(ctx context.Context, role model.Role, email string) (model.Actor, error)
	Create(ctx context.Context, actor model.Actor) error
	UpdateStatus(ctx context.Context, role model.Role, id, status string) error
	TouchLastLogin(ctx context.Context, role model.Role, id string, at time.Time) error
	UpdateResumeURL(ctx context.Context, studentID, url string) error
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	ListStudentIDsByCohort(ctx context.Context, year int, courses []string) ([]string, error)
	ListCompanies(ctx context.Context, filter CompanyFilter, offset, limit int) ([]model.Company, int64, error)
	ListStudents(ctx context.Context, filter StudentFilter, offset, limit int) ([]StudentSummary, int64, error)
	CountCompanies(ctx context.Context, status string) (int64, error)
	CountStudents(ctx context.Context, status string) (int64, error)
	// EmailsByIDs 返回 id → email，用于邮件投递
	EmailsByIDs(ctx context.Context, role model.Role, ids []string) (map[string]string, error)
}

type actorRepo struct {
	db *gorm.DB
}

// NewActorRepo 创建 ActorRepository 实例
func NewActorRepo(db *gorm.DB) ActorRepository {
	return &actorRepo{db: db}
}

// newActor 按角色返回对应模型的空实例
func newActor(role model.Role) (model.Actor, error) {
	switch role {
	case model.RoleCompany:
		return &model.Company{}, nil
	case model.RoleStudent:
		return &model.Student{}, nil
	case model.RoleFaculty:
		return &model.Faculty{}, nil
	default:
		return nil, fmt.Errorf("未知角色: %q", role)
	}
}

func (r *actorRepo) FindByID(ctx context.Context, role model.Role, id string) (model.Actor, error) {
	actor, err := newActor(role)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(actor).Error; err != nil {
		return nil, err
	}
	return actor, nil
}

func (r *actorRepo) FindByEmail(ctx context.Context, role model.Role, email string) (model.Actor, error) {
	actor, err := newActor(role)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(actor).Error; err != nil {
		return nil, err
	}
	return actor, nil
}

func (r *actorRepo) Create(ctx context.Context, actor model.Actor) error {
	return r.db.WithContext(ctx).Create(actor).Error
}

func (r *actorRepo) UpdateStatus(ctx context.Context, role model.Role, id, status string) error {
	actor, err := newActor(role)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(actor).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *actorRepo) TouchLastLogin(ctx context.Context, role model.Role, id string, at time.Time) error {
	actor, err := newActor(role)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(actor).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *actorRepo) UpdateResumeURL(ctx context.Context, studentID, url string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("id = ?", studentID).
		Updates(map[string]interface{}{
			"resume_url": url,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *actorRepo) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var s model.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *actorRepo) ListStudentIDsByCohort(ctx context.Context, year int, courses []string) ([]string, error) {
	var ids []string
	db := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("status = ?", model.StudentStatusActive)
	if year > 0 {
		db = db.Where("year = ?", year)
	}
	if len(courses) > 0 {
		db = db.Where("course IN ?", courses)
	}
	err := db.Order("created_at").Pluck("id", &ids).Error
	return ids, err
}

func (r *actorRepo) ListCompanies(ctx context.Context, filter CompanyFilter, offset, limit int) ([]model.Company, int64, error) {
	var companies []model.Company
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Company{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ? OR industry ILIKE ?", kw, kw, kw)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&companies).Error; err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

func (r *actorRepo) ListStudents(ctx context.Context, filter StudentFilter, offset, limit int) ([]StudentSummary, int64, error) {
	var students []StudentSummary
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Student{})
	if filter.Year > 0 {
		db = db.Where("year = ?", filter.Year)
	}
	if filter.Course != "" {
		db = db.Where("course = ?", filter.Course)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ? OR roll_number ILIKE ?", kw, kw, kw)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Select(`students.*,
		(SELECT COUNT(*) FROM applications a WHERE a.student_id = students.id) AS total_applications,
		(SELECT COUNT(*) FROM applications a WHERE a.student_id = students.id AND a.status = ?) AS offers`,
		model.ApplicationStatusHired).
		Order("name").
		Offset(offset).Limit(limit).
		Scan(&students).Error
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (r *actorRepo) CountCompanies(ctx context.Context, status string) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx).Model(&model.Company{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Count(&n).Error
	return n, err
}

func (r *actorRepo) CountStudents(ctx context.Context, status string) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx).Model(&model.Student{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Count(&n).Error
	return n, err
}

func (r *actorRepo) EmailsByIDs(ctx context.Context, role model.Role, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	actor, err := newActor(role)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID    string
		Email string
	}
	if err := r.db.WithContext(ctx).
		Model(actor).
		Select("id, email").
		Where("id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Email
	}
	return out, nil
}
