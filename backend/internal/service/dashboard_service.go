package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
)

// DashboardService 各角色看板统计
type DashboardService interface {
	FacultyStats(ctx context.Context) (*dto.FacultyStats, error)
	CompanyStats(ctx context.Context, companyID string) (*dto.CompanyStats, error)
	StudentStats(ctx context.Context, studentID string) (*dto.StudentStats, error)
}

type dashboardService struct {
	repo   *repository.Repository
	clock  Clock
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, clock Clock, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, clock: clock, logger: logger}
}

// counter 依次执行计数，遇错即停
type counter struct {
	err error
}

func (c *counter) count(dst *int64, fn func() (int64, error)) {
	if c.err != nil {
		return
	}
	*dst, c.err = fn()
}

func (s *dashboardService) FacultyStats(ctx context.Context) (*dto.FacultyStats, error) {
	var st dto.FacultyStats
	c := &counter{}
	c.count(&st.ActiveStudents, func() (int64, error) {
		return s.repo.Actor.CountStudents(ctx, model.StudentStatusActive)
	})
	c.count(&st.ApprovedCompanies, func() (int64, error) {
		return s.repo.Actor.CountCompanies(ctx, model.CompanyStatusApproved)
	})
	c.count(&st.PendingCompanies, func() (int64, error) {
		return s.repo.Actor.CountCompanies(ctx, model.CompanyStatusPending)
	})
	c.count(&st.PendingJobs, func() (int64, error) {
		return s.repo.Job.Count(ctx, repository.JobFilter{Statuses: []model.JobStatus{model.JobStatusPending}})
	})
	c.count(&st.ActiveJobs, func() (int64, error) {
		return s.repo.Job.Count(ctx, repository.JobFilter{Statuses: []model.JobStatus{model.JobStatusActive}})
	})
	c.count(&st.TotalApplications, func() (int64, error) {
		return s.repo.Application.Count(ctx, repository.ApplicationFilter{})
	})
	c.count(&st.Hires, func() (int64, error) {
		return s.repo.Application.Count(ctx, repository.ApplicationFilter{Status: model.ApplicationStatusHired})
	})
	if c.err != nil {
		s.logger.Error("统计教师看板失败", zap.Error(c.err))
		return nil, c.err
	}
	return &st, nil
}

func (s *dashboardService) CompanyStats(ctx context.Context, companyID string) (*dto.CompanyStats, error) {
	var st dto.CompanyStats
	c := &counter{}
	c.count(&st.ActiveJobs, func() (int64, error) {
		return s.repo.Job.Count(ctx, repository.JobFilter{
			CompanyID: companyID,
			Statuses:  []model.JobStatus{model.JobStatusActive},
		})
	})
	c.count(&st.PendingJobs, func() (int64, error) {
		return s.repo.Job.Count(ctx, repository.JobFilter{
			CompanyID: companyID,
			Statuses:  []model.JobStatus{model.JobStatusPending},
		})
	})
	c.count(&st.TotalApplications, func() (int64, error) {
		return s.repo.Application.Count(ctx, repository.ApplicationFilter{CompanyID: companyID})
	})
	c.count(&st.PendingApplications, func() (int64, error) {
		return s.repo.Application.Count(ctx, repository.ApplicationFilter{
			CompanyID: companyID,
			Status:    model.ApplicationStatusPending,
		})
	})
	c.count(&st.Hires, func() (int64, error) {
		return s.repo.Application.Count(ctx, repository.ApplicationFilter{
			CompanyID: companyID,
			Status:    model.ApplicationStatusHired,
		})
	})
	if c.err != nil {
		s.logger.Error("统计企业看板失败", zap.String("company_id", companyID), zap.Error(c.err))
		return nil, c.err
	}
	return &st, nil
}

func (s *dashboardService) StudentStats(ctx context.Context, studentID string) (*dto.StudentStats, error) {
	var st dto.StudentStats
	c := &counter{}
	byStatus := func(status string) func() (int64, error) {
		return func() (int64, error) {
			return s.repo.Application.Count(ctx, repository.ApplicationFilter{StudentID: studentID, Status: status})
		}
	}
	c.count(&st.TotalApplications, byStatus(""))
	c.count(&st.Pending, byStatus(model.ApplicationStatusPending))
	c.count(&st.Hired, byStatus(model.ApplicationStatusHired))
	c.count(&st.Rejected, byStatus(model.ApplicationStatusRejected))
	c.count(&st.OpenJobs, func() (int64, error) {
		today := s.clock.Today()
		return s.repo.Job.Count(ctx, repository.JobFilter{
			Statuses: []model.JobStatus{model.JobStatusActive},
			OpenOn:   &today,
		})
	})
	if c.err != nil {
		s.logger.Error("统计学生看板失败", zap.String("student_id", studentID), zap.Error(c.err))
		return nil, c.err
	}
	return &st, nil
}
