package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
)

// ── 教师模块业务错误 ──

var (
	ErrCompanyNotFound = pkgerrors.New(pkgerrors.KindNotFound, 15001, "企业不存在")
	ErrStudentNotFound = pkgerrors.New(pkgerrors.KindNotFound, 15002, "学生不存在")
	ErrNoCohortMatched = pkgerrors.New(pkgerrors.KindNotFound, 15003, "没有符合条件的学生")
)

// 学生详情页最多展示的申请条数
const studentDetailApplications = 200

var companyStatusText = map[string]string{
	model.CompanyStatusPending:   "待审核",
	model.CompanyStatusApproved:  "已通过审核",
	model.CompanyStatusRejected:  "未通过审核",
	model.CompanyStatusSuspended: "已被停用",
}

// FacultyService 教师管理业务接口
type FacultyService interface {
	ListCompanies(ctx context.Context, req *dto.CompanyListRequest) (*dto.PageResult[model.Company], error)
	UpdateCompanyStatus(ctx context.Context, companyID, status string) error
	ListStudents(ctx context.Context, req *dto.StudentListRequest) (*dto.PageResult[repository.StudentSummary], error)
	GetStudent(ctx context.Context, id string) (*dto.StudentDetailResponse, error)
	// NotifyStudents 向指定年级与专业的在读学生推送岗位，返回通知人数
	NotifyStudents(ctx context.Context, req *dto.NotifyStudentsRequest) (int, error)
}

type facultyService struct {
	repo     *repository.Repository
	notifier NotificationService
	emit     *emitter
	logger   *zap.Logger
}

// NewFacultyService 创建 FacultyService 实例
func NewFacultyService(repo *repository.Repository, notifier NotificationService, emit *emitter, logger *zap.Logger) FacultyService {
	return &facultyService{repo: repo, notifier: notifier, emit: emit, logger: logger}
}

func (s *facultyService) ListCompanies(ctx context.Context, req *dto.CompanyListRequest) (*dto.PageResult[model.Company], error) {
	list, total, err := s.repo.Actor.ListCompanies(ctx, repository.CompanyFilter{
		Status:  req.Status,
		Keyword: strings.TrimSpace(req.Keyword),
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询企业列表失败", zap.Error(err))
		return nil, err
	}
	return &dto.PageResult[model.Company]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}, nil
}

func (s *facultyService) UpdateCompanyStatus(ctx context.Context, companyID, status string) error {
	text, ok := companyStatusText[status]
	if !ok {
		return pkgerrors.New(pkgerrors.KindValidation, 10001, "未知的企业状态")
	}

	if err := s.repo.Actor.UpdateStatus(ctx, model.RoleCompany, companyID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCompanyNotFound
		}
		s.logger.Error("更新企业状态失败", zap.String("company_id", companyID), zap.Error(err))
		return err
	}

	s.logger.Info("企业状态已更新", zap.String("company_id", companyID), zap.String("status", status))

	s.emit.emit(ctx, NotifyInput{
		Type:          model.NotificationAccountStatus,
		Message:       fmt.Sprintf("你的企业账号%s", text),
		TargetRole:    model.RoleCompany,
		TargetActorID: companyID,
	})
	return nil
}

func (s *facultyService) ListStudents(ctx context.Context, req *dto.StudentListRequest) (*dto.PageResult[repository.StudentSummary], error) {
	list, total, err := s.repo.Actor.ListStudents(ctx, repository.StudentFilter{
		Year:    req.Year,
		Course:  strings.TrimSpace(req.Course),
		Status:  req.Status,
		Keyword: strings.TrimSpace(req.Keyword),
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, err
	}
	return &dto.PageResult[repository.StudentSummary]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}, nil
}

func (s *facultyService) GetStudent(ctx context.Context, id string) (*dto.StudentDetailResponse, error) {
	student, err := s.repo.Actor.GetStudent(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", id), zap.Error(err))
		return nil, err
	}

	apps, _, err := s.repo.Application.List(ctx, repository.ApplicationFilter{StudentID: id}, 0, studentDetailApplications)
	if err != nil {
		s.logger.Error("查询学生申请记录失败", zap.String("student_id", id), zap.Error(err))
		return nil, err
	}
	if apps == nil {
		apps = []repository.ApplicationView{}
	}
	return &dto.StudentDetailResponse{Student: student, Applications: apps}, nil
}

func (s *facultyService) NotifyStudents(ctx context.Context, req *dto.NotifyStudentsRequest) (int, error) {
	job, err := s.repo.Job.GetByID(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrJobNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("job_id", req.JobID), zap.Error(err))
		return 0, err
	}
	if job.Status != model.JobStatusActive {
		return 0, ErrPostingUnavailable
	}

	courses := make([]string, 0, len(req.Courses))
	for _, c := range req.Courses {
		if c = strings.TrimSpace(c); c != "" {
			courses = append(courses, c)
		}
	}

	ids, err := s.repo.Actor.ListStudentIDsByCohort(ctx, req.Year, courses)
	if err != nil {
		s.logger.Error("查询目标学生失败", zap.Int("year", req.Year), zap.Error(err))
		return 0, err
	}
	if len(ids) == 0 {
		return 0, ErrNoCohortMatched
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		msg = fmt.Sprintf("有新的岗位机会：「%s」，截止日期 %s", job.Title, job.Deadline().Format("2006-01-02"))
	}

	n, err := s.notifier.NotifyMany(ctx, NotifyInput{
		Type:       model.NotificationNewJob,
		Message:    msg,
		TargetRole: model.RoleStudent,
		JobID:      job.ID,
	}, ids)
	if err != nil {
		return 0, err
	}

	s.logger.Info("已向学生推送岗位",
		zap.String("job_id", job.ID),
		zap.Int("year", req.Year),
		zap.Strings("courses", courses),
		zap.Int("notified", n),
	)
	return n, nil
}
