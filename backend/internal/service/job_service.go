package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/validate"
)

// ── 岗位模块业务错误 ──

var (
	ErrJobNotFound          = pkgerrors.New(pkgerrors.KindNotFound, 12001, "岗位不存在或无权操作")
	ErrJobHasApplications   = pkgerrors.New(pkgerrors.KindConflict, 12002, "岗位已有申请记录，无法永久删除")
	ErrJobInvalidTransition = pkgerrors.New(pkgerrors.KindConflict, 12003, "当前岗位状态不允许该操作")
	ErrJobDeadlineInvalid   = pkgerrors.New(pkgerrors.KindValidation, 12004, "截止日期格式错误或早于今天")
	ErrJobInvalidModeration = pkgerrors.New(pkgerrors.KindValidation, 12006, "未知的审核操作")
)

// 审核动作
const (
	ModerationApprove = "approve"
	ModerationReject  = "reject"
)

// calendarMaxEvents 日历订阅最多输出的岗位数
const calendarMaxEvents = 500

// JobService 岗位业务接口
type JobService interface {
	Create(ctx context.Context, companyID string, req *dto.CreateJobRequest) (*model.JobPosting, error)
	ListPublic(ctx context.Context, req *dto.PublicJobListRequest) (*dto.PageResult[repository.JobListItem], error)
	GetPublic(ctx context.Context, id string) (*repository.JobListItem, error)
	ListForCompany(ctx context.Context, companyID string, req *dto.CompanyJobListRequest) (*dto.PageResult[repository.JobListItem], error)
	Update(ctx context.Context, id, companyID string, req *dto.UpdateJobRequest) (*model.JobPosting, error)
	Moderate(ctx context.Context, id, facultyID, action, reason string) (*model.JobPosting, error)
	SoftDelete(ctx context.Context, id, companyID string) error
	HardDelete(ctx context.Context, id, companyID string) error
	ListForFaculty(ctx context.Context, req *dto.FacultyJobListRequest) (*dto.PageResult[repository.JobListItem], error)
	// Calendar 公开岗位截止日期的 iCalendar 订阅
	Calendar(ctx context.Context, baseURL string) (string, error)
}

type jobService struct {
	repo   *repository.Repository
	emit   *emitter
	clock  Clock
	logger *zap.Logger
}

// NewJobService 创建 JobService 实例
func NewJobService(repo *repository.Repository, emit *emitter, clock Clock, logger *zap.Logger) JobService {
	return &jobService{repo: repo, emit: emit, clock: clock, logger: logger}
}

// parseDeadline 解析截止日期，不得早于今天
func (s *jobService) parseDeadline(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(validate.DateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, ErrJobDeadlineInvalid
	}
	if d.Before(s.clock.Today()) {
		return time.Time{}, ErrJobDeadlineInvalid
	}
	return d, nil
}

func cleanSkills(in []string) []string {
	out := make([]string, 0, len(in))
	for _, sk := range in {
		if sk = strings.TrimSpace(sk); sk != "" {
			out = append(out, sk)
		}
	}
	return out
}

// ────── Create ──────

func (s *jobService) Create(ctx context.Context, companyID string, req *dto.CreateJobRequest) (*model.JobPosting, error) {
	deadline, err := s.parseDeadline(req.ApplicationDeadline)
	if err != nil {
		return nil, err
	}

	job := &model.JobPosting{
		CompanyID:           companyID,
		Title:               strings.TrimSpace(req.Title),
		Department:          strings.TrimSpace(req.Department),
		JobType:             req.JobType,
		Location:            strings.TrimSpace(req.Location),
		Description:         req.Description,
		Experience:          req.Experience,
		SalaryRange:         req.SalaryRange,
		Skills:              cleanSkills(req.Skills),
		Eligibility:         req.Eligibility,
		ApplicationDeadline: datatypes.Date(deadline),
		Status:              model.JobStatusPending,
	}

	if err := s.repo.Job.Create(ctx, job); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return nil, ErrActorNotFound
		}
		s.logger.Error("创建岗位失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("岗位已创建，等待审核",
		zap.String("job_id", job.ID),
		zap.String("company_id", companyID),
	)

	s.emit.emit(ctx, NotifyInput{
		Type:       model.NotificationNewJob,
		Message:    fmt.Sprintf("新岗位「%s」待审核", job.Title),
		TargetRole: model.RoleFaculty,
		JobID:      job.ID,
	})
	return job, nil
}

// ────── 公开查询 ──────

func (s *jobService) publicFilter() repository.JobFilter {
	today := s.clock.Today()
	return repository.JobFilter{
		Statuses: []model.JobStatus{model.JobStatusActive},
		OpenOn:   &today,
	}
}

func (s *jobService) ListPublic(ctx context.Context, req *dto.PublicJobListRequest) (*dto.PageResult[repository.JobListItem], error) {
	filter := s.publicFilter()
	filter.Keyword = strings.TrimSpace(req.Keyword)
	filter.JobType = req.JobType
	filter.Location = strings.TrimSpace(req.Location)
	return s.list(ctx, filter, &req.PaginationRequest)
}

func (s *jobService) GetPublic(ctx context.Context, id string) (*repository.JobListItem, error) {
	item, err := s.repo.Job.GetItem(ctx, id, s.publicFilter())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("job_id", id), zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (s *jobService) ListForCompany(ctx context.Context, companyID string, req *dto.CompanyJobListRequest) (*dto.PageResult[repository.JobListItem], error) {
	filter := repository.JobFilter{CompanyID: companyID}
	if req.Status != "" {
		filter.Statuses = []model.JobStatus{model.JobStatus(req.Status)}
	} else {
		filter.ExcludeStatus = model.JobStatusDeleted
	}
	return s.list(ctx, filter, &req.PaginationRequest)
}

func (s *jobService) ListForFaculty(ctx context.Context, req *dto.FacultyJobListRequest) (*dto.PageResult[repository.JobListItem], error) {
	filter := repository.JobFilter{
		CompanyID:     req.CompanyID,
		CompanyStatus: req.CompanyStatus,
		Keyword:       strings.TrimSpace(req.Keyword),
	}
	if req.Status != "" {
		filter.Statuses = []model.JobStatus{model.JobStatus(req.Status)}
	} else {
		filter.ExcludeStatus = model.JobStatusDeleted
	}
	return s.list(ctx, filter, &req.PaginationRequest)
}

func (s *jobService) list(ctx context.Context, filter repository.JobFilter, page *dto.PaginationRequest) (*dto.PageResult[repository.JobListItem], error) {
	items, total, err := s.repo.Job.List(ctx, filter, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询岗位列表失败", zap.Error(err))
		return nil, err
	}
	return &dto.PageResult[repository.JobListItem]{
		List:     items,
		Total:    total,
		Page:     page.GetPage(),
		PageSize: page.GetPageSize(),
	}, nil
}

// ────── Update ──────

func (s *jobService) Update(ctx context.Context, id, companyID string, req *dto.UpdateJobRequest) (*model.JobPosting, error) {
	job, err := s.getOwned(ctx, s.repo, id, companyID)
	if err != nil {
		return nil, err
	}
	if job.Status == model.JobStatusDeleted {
		return nil, ErrJobInvalidTransition
	}
	if job.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.Title != nil {
		job.Title = strings.TrimSpace(*req.Title)
	}
	if req.Department != nil {
		job.Department = strings.TrimSpace(*req.Department)
	}
	if req.JobType != nil {
		job.JobType = *req.JobType
	}
	if req.Location != nil {
		job.Location = strings.TrimSpace(*req.Location)
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Experience != nil {
		job.Experience = *req.Experience
	}
	if req.SalaryRange != nil {
		job.SalaryRange = *req.SalaryRange
	}
	if req.Skills != nil {
		job.Skills = cleanSkills(req.Skills)
	}
	if req.Eligibility != nil {
		job.Eligibility = *req.Eligibility
	}
	if req.ApplicationDeadline != nil {
		deadline, err := s.parseDeadline(*req.ApplicationDeadline)
		if err != nil {
			return nil, err
		}
		job.ApplicationDeadline = datatypes.Date(deadline)
	}

	if err := s.repo.Job.Update(ctx, job); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("更新岗位失败", zap.String("job_id", id), zap.Error(err))
		return nil, err
	}
	return job, nil
}

// ────── Moderate ──────

func (s *jobService) Moderate(ctx context.Context, id, facultyID, action, reason string) (*model.JobPosting, error) {
	job, err := s.repo.Job.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("job_id", id), zap.Error(err))
		return nil, err
	}

	var next model.JobStatus
	switch action {
	case ModerationApprove:
		next = model.JobStatusActive
	case ModerationReject:
		// 待审核 → 驳回；已上线 → 下架
		next = model.JobStatusRejected
		if job.Status == model.JobStatusActive {
			next = model.JobStatusInactive
		}
	default:
		return nil, ErrJobInvalidModeration
	}
	if !job.Status.CanTransitionTo(next) {
		return nil, ErrJobInvalidTransition
	}

	now := s.clock.Now()
	reason = strings.TrimSpace(reason)
	job.Status = next
	job.ModeratedBy = &facultyID
	job.ModeratedAt = &now
	if action == ModerationReject {
		job.RejectReason = reason
	} else {
		job.RejectReason = ""
	}

	if err := s.repo.Job.Update(ctx, job); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("审核岗位失败", zap.String("job_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("岗位审核完成",
		zap.String("job_id", id),
		zap.String("faculty_id", facultyID),
		zap.String("status", string(next)),
	)

	switch {
	case action == ModerationApprove:
		s.emit.emit(ctx, NotifyInput{
			Type:          model.NotificationJobApproved,
			Message:       fmt.Sprintf("岗位「%s」已通过审核", job.Title),
			TargetRole:    model.RoleCompany,
			TargetActorID: job.CompanyID,
			JobID:         job.ID,
		})
	case reason != "":
		s.emit.emit(ctx, NotifyInput{
			Type:          model.NotificationJobRejected,
			Message:       fmt.Sprintf("岗位「%s」未通过审核：%s", job.Title, reason),
			TargetRole:    model.RoleCompany,
			TargetActorID: job.CompanyID,
			JobID:         job.ID,
		})
	}
	return job, nil
}

// ────── Delete ──────

// SoftDelete 标记删除，保留申请记录；重复删除直接成功
func (s *jobService) SoftDelete(ctx context.Context, id, companyID string) error {
	job, err := s.getOwned(ctx, s.repo, id, companyID)
	if err != nil {
		return err
	}
	if job.Status == model.JobStatusDeleted {
		return nil
	}

	job.Status = model.JobStatusDeleted
	if err := s.repo.Job.Update(ctx, job); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return err
		}
		s.logger.Error("删除岗位失败", zap.String("job_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("岗位已删除", zap.String("job_id", id), zap.String("company_id", companyID))
	return nil
}

// HardDelete 永久删除，存在申请时拒绝
func (s *jobService) HardDelete(ctx context.Context, id, companyID string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.getOwned(ctx, tx, id, companyID); err != nil {
			return err
		}

		n, err := tx.Application.CountByJob(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrJobHasApplications
		}

		if err := tx.Job.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			if pkgerrors.IsForeignKeyViolation(err) {
				return ErrJobHasApplications
			}
			return err
		}
		return nil
	})
	if err != nil {
		if _, ok := pkgerrors.As(err); !ok {
			s.logger.Error("永久删除岗位失败", zap.String("job_id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("岗位已永久删除", zap.String("job_id", id), zap.String("company_id", companyID))
	return nil
}

// getOwned 查询属于企业的岗位，不存在与非本企业返回同一错误
func (s *jobService) getOwned(ctx context.Context, repo *repository.Repository, id, companyID string) (*model.JobPosting, error) {
	job, err := repo.Job.GetOwned(ctx, id, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("job_id", id), zap.Error(err))
		return nil, err
	}
	return job, nil
}

// ────── Calendar ──────

func (s *jobService) Calendar(ctx context.Context, baseURL string) (string, error) {
	items, _, err := s.repo.Job.List(ctx, s.publicFilter(), 0, calendarMaxEvents)
	if err != nil {
		s.logger.Error("查询日历岗位失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//placement-portal//jobs//CN")
	cal.SetXWRCalName("岗位申请截止日期")

	stamp := s.clock.Now().UTC()
	base := strings.TrimRight(baseURL, "/")
	for _, item := range items {
		deadline := item.Deadline()
		evt := cal.AddEvent(item.ID + "@placement-portal")
		evt.SetDtStampTime(stamp)
		evt.SetAllDayStartAt(deadline)
		evt.SetAllDayEndAt(deadline.AddDate(0, 0, 1))
		evt.SetSummary(fmt.Sprintf("申请截止：%s（%s）", item.Title, item.CompanyName))
		evt.SetLocation(item.Location)
		evt.SetDescription(fmt.Sprintf("%s · %s", item.Department, item.JobType))
		if base != "" {
			evt.SetURL(base + "/jobs/" + item.ID)
		}
	}
	return cal.Serialize(), nil
}
