package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/hanzel-sc/iwp-placement-portal/backend/config"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/jwt"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/storage"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Job          JobService
	Application  ApplicationService
	Notification NotificationService
	Faculty      FacultyService
	Dashboard    DashboardService
	Student      StudentService
	Export       ExportService
}

// Deps 可选依赖（Redis 黑名单、邮件队列、文件存储）
// 为空时对应功能降级
type Deps struct {
	Blacklist TokenBlacklist
	Mailer    MailEnqueuer
	Storage   storage.Storage
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	deps Deps,
	logger *zap.Logger,
) *Service {
	clock := Clock{Now: time.Now, Location: cfg.Server.Location()}
	hasher := NewBcryptHasher(cfg.Auth.BcryptCost)

	notification := NewNotificationService(repo, deps.Mailer, logger)
	emit := newEmitter(notification, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, hasher, deps.Blacklist, clock, logger),
		Job:          NewJobService(repo, emit, clock, logger),
		Application:  NewApplicationService(repo, emit, clock, logger),
		Notification: notification,
		Faculty:      NewFacultyService(repo, notification, emit, logger),
		Dashboard:    NewDashboardService(repo, clock, logger),
		Student:      NewStudentService(repo, deps.Storage, clock, logger),
		Export:       NewExportService(repo, logger),
	}
}

// Clock 时间来源，"今天"按服务器配置时区计算
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// Today 当前时区的日期（00:00 UTC 表示，便于与 DATE 列比较）
func (c Clock) Today() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return model.DateOnly(c.Now().In(loc))
}
