package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
)

// ── 申请模块业务错误 ──

var (
	ErrApplicationNotFound  = pkgerrors.New(pkgerrors.KindNotFound, 13001, "申请不存在或无权操作")
	ErrPostingUnavailable   = pkgerrors.New(pkgerrors.KindConflict, 13002, "岗位不存在、未开放或已截止")
	ErrDuplicateApplication = pkgerrors.New(pkgerrors.KindConflict, 13003, "已申请过该岗位")
	ErrAlreadyDecided       = pkgerrors.New(pkgerrors.KindConflict, 13004, "该申请已处理")
	ErrInvalidDecision      = pkgerrors.New(pkgerrors.KindValidation, 13005, "处理结果只能为 hired 或 rejected")
)

// ApplicationService 申请业务接口
type ApplicationService interface {
	Apply(ctx context.Context, studentID, jobID string) (*model.Application, error)
	Decide(ctx context.Context, id, companyID, status string) (*model.Application, error)
	ListForStudent(ctx context.Context, studentID string, req *dto.ApplicationListRequest) (*dto.PageResult[repository.ApplicationView], error)
	ListForCompany(ctx context.Context, companyID string, req *dto.ApplicationListRequest) (*dto.PageResult[repository.ApplicationView], error)
	ListForFaculty(ctx context.Context, req *dto.FacultyApplicationListRequest) (*dto.PageResult[repository.ApplicationView], error)
}

type applicationService struct {
	repo   *repository.Repository
	emit   *emitter
	clock  Clock
	logger *zap.Logger
}

// NewApplicationService 创建 ApplicationService 实例
func NewApplicationService(repo *repository.Repository, emit *emitter, clock Clock, logger *zap.Logger) ApplicationService {
	return &applicationService{repo: repo, emit: emit, clock: clock, logger: logger}
}

// ────── Apply ──────

func (s *applicationService) Apply(ctx context.Context, studentID, jobID string) (*model.Application, error) {
	// 1. 岗位必须已通过且未截止
	job, err := s.repo.Job.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostingUnavailable
		}
		s.logger.Error("查询岗位失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}
	if !job.OpenOn(s.clock.Today()) {
		return nil, ErrPostingUnavailable
	}

	// 2. 重复申请
	exists, err := s.repo.Application.Exists(ctx, studentID, jobID)
	if err != nil {
		s.logger.Error("查询申请记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateApplication
	}

	// 3. 写入，并发重复申请由唯一索引兜底
	app := &model.Application{
		StudentID: studentID,
		JobID:     jobID,
		Status:    model.ApplicationStatusPending,
		AppliedAt: s.clock.Now(),
	}
	if err := s.repo.Application.Create(ctx, app); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrDuplicateApplication
		}
		if pkgerrors.IsForeignKeyViolation(err) {
			return nil, ErrPostingUnavailable
		}
		s.logger.Error("创建申请失败",
			zap.String("student_id", studentID),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("学生已投递岗位",
		zap.String("application_id", app.ID),
		zap.String("student_id", studentID),
		zap.String("job_id", jobID),
	)

	s.emit.emit(ctx, NotifyInput{
		Type:          model.NotificationApplicationReceived,
		Message:       fmt.Sprintf("岗位「%s」收到一份新的申请", job.Title),
		TargetRole:    model.RoleCompany,
		TargetActorID: job.CompanyID,
		JobID:         job.ID,
		ApplicationID: app.ID,
	})
	return app, nil
}

// ────── Decide ──────

func (s *applicationService) Decide(ctx context.Context, id, companyID, status string) (*model.Application, error) {
	if status != model.ApplicationStatusHired && status != model.ApplicationStatusRejected {
		return nil, ErrInvalidDecision
	}

	var app *model.Application
	now := s.clock.Now()
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 不存在与非本企业岗位的申请返回同一错误
		found, err := tx.Application.GetForCompany(ctx, id, companyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}
		if found.IsDecided() {
			return ErrAlreadyDecided
		}

		// 条件更新：仅 pending 时命中，并发处理时只有一方成功
		ok, err := tx.Application.Decide(ctx, id, status, companyID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyDecided
		}

		found.Status = status
		found.DecidedAt = &now
		found.DecidedBy = &companyID
		app = found
		return nil
	})
	if err != nil {
		if _, ok := pkgerrors.As(err); !ok {
			s.logger.Error("处理申请失败", zap.String("application_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("申请已处理",
		zap.String("application_id", id),
		zap.String("company_id", companyID),
		zap.String("status", status),
	)

	title := ""
	if app.Job != nil {
		title = app.Job.Title
	}
	result := "未通过"
	if status == model.ApplicationStatusHired {
		result = "已录用"
	}
	s.emit.emit(ctx, NotifyInput{
		Type:          model.NotificationApplicationUpdate,
		Message:       fmt.Sprintf("你对岗位「%s」的申请结果：%s", title, result),
		TargetRole:    model.RoleStudent,
		TargetActorID: app.StudentID,
		JobID:         app.JobID,
		ApplicationID: app.ID,
	})
	if status == model.ApplicationStatusHired {
		s.emit.emit(ctx, NotifyInput{
			Type:          model.NotificationStudentHired,
			Message:       fmt.Sprintf("有学生被岗位「%s」录用", title),
			TargetRole:    model.RoleFaculty,
			JobID:         app.JobID,
			ApplicationID: app.ID,
		})
	}
	return app, nil
}

// ────── 列表 ──────

func (s *applicationService) ListForStudent(ctx context.Context, studentID string, req *dto.ApplicationListRequest) (*dto.PageResult[repository.ApplicationView], error) {
	return s.list(ctx, repository.ApplicationFilter{
		StudentID: studentID,
		JobID:     req.JobID,
		Status:    req.Status,
		Keyword:   req.Keyword,
	}, &req.PaginationRequest)
}

func (s *applicationService) ListForCompany(ctx context.Context, companyID string, req *dto.ApplicationListRequest) (*dto.PageResult[repository.ApplicationView], error) {
	return s.list(ctx, repository.ApplicationFilter{
		CompanyID: companyID,
		JobID:     req.JobID,
		Status:    req.Status,
		Keyword:   req.Keyword,
	}, &req.PaginationRequest)
}

func (s *applicationService) ListForFaculty(ctx context.Context, req *dto.FacultyApplicationListRequest) (*dto.PageResult[repository.ApplicationView], error) {
	return s.list(ctx, facultyApplicationFilter(req), &req.PaginationRequest)
}

func facultyApplicationFilter(req *dto.FacultyApplicationListRequest) repository.ApplicationFilter {
	return repository.ApplicationFilter{
		CompanyID: req.CompanyID,
		JobID:     req.JobID,
		Status:    req.Status,
		Course:    req.Course,
		Year:      req.Year,
		Keyword:   req.Keyword,
	}
}

func (s *applicationService) list(ctx context.Context, filter repository.ApplicationFilter, page *dto.PaginationRequest) (*dto.PageResult[repository.ApplicationView], error) {
	rows, total, err := s.repo.Application.List(ctx, filter, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询申请列表失败", zap.Error(err))
		return nil, err
	}
	return &dto.PageResult[repository.ApplicationView]{
		List:     rows,
		Total:    total,
		Page:     page.GetPage(),
		PageSize: page.GetPageSize(),
	}, nil
}
