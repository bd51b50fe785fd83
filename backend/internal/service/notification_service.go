package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/mail"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = pkgerrors.New(pkgerrors.KindNotFound, 14001, "通知不存在")
	ErrNotificationInvalid  = pkgerrors.New(pkgerrors.KindValidation, 14002, "通知内容不完整")
)

// MailEnqueuer 异步邮件投递
type MailEnqueuer interface {
	Enqueue(msg mail.Message) error
}

// NotifyInput 通知内容；TargetActorID 为空表示角色广播
type NotifyInput struct {
	Type          string
	Message       string
	TargetRole    model.Role
	TargetActorID string
	JobID         string
	ApplicationID string
}

func (in NotifyInput) build(actorID string) model.Notification {
	n := model.Notification{
		Type:       in.Type,
		Message:    in.Message,
		TargetRole: in.TargetRole,
	}
	if actorID != "" {
		n.TargetActorID = &actorID
	}
	if in.JobID != "" {
		jobID := in.JobID
		n.JobID = &jobID
	}
	if in.ApplicationID != "" {
		appID := in.ApplicationID
		n.ApplicationID = &appID
	}
	return n
}

func (in NotifyInput) validate() error {
	if in.Type == "" || in.Message == "" || !in.TargetRole.Valid() {
		return ErrNotificationInvalid
	}
	return nil
}

// NotificationService 通知业务接口
type NotificationService interface {
	// Notify 写入一条通知
	Notify(ctx context.Context, in NotifyInput) error
	// NotifyMany 为每个 actorID 各写入一条定向通知，返回写入条数
	NotifyMany(ctx context.Context, in NotifyInput, actorIDs []string) (int, error)
	List(ctx context.Context, role model.Role, actorID string, req *dto.NotificationListRequest) (*dto.PageResult[model.Notification], error)
	UnreadCount(ctx context.Context, role model.Role, actorID string) (int64, error)
	MarkRead(ctx context.Context, id string, role model.Role, actorID string) error
	MarkAllRead(ctx context.Context, role model.Role, actorID string) (int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	mailer MailEnqueuer
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例，mailer 可为 nil
func NewNotificationService(repo *repository.Repository, mailer MailEnqueuer, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, mailer: mailer, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, in NotifyInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	n := in.build(in.TargetActorID)
	if err := s.repo.Notification.Create(ctx, &n); err != nil {
		s.logger.Error("写入通知失败", zap.String("type", in.Type), zap.Error(err))
		return err
	}

	if in.TargetActorID != "" {
		s.deliverMail(ctx, in, []string{in.TargetActorID})
	}
	return nil
}

func (s *notificationService) NotifyMany(ctx context.Context, in NotifyInput, actorIDs []string) (int, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	if len(actorIDs) == 0 {
		return 0, nil
	}

	seen := make(map[string]struct{}, len(actorIDs))
	list := make([]model.Notification, 0, len(actorIDs))
	targets := make([]string, 0, len(actorIDs))
	for _, id := range actorIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		list = append(list, in.build(id))
		targets = append(targets, id)
	}

	if err := s.repo.Notification.BatchCreate(ctx, list); err != nil {
		s.logger.Error("批量写入通知失败",
			zap.String("type", in.Type),
			zap.Int("count", len(list)),
			zap.Error(err),
		)
		return 0, err
	}

	s.deliverMail(ctx, in, targets)
	return len(list), nil
}

// deliverMail 将定向通知投递到邮件队列，失败只记录日志
func (s *notificationService) deliverMail(ctx context.Context, in NotifyInput, actorIDs []string) {
	if s.mailer == nil {
		return
	}
	emails, err := s.repo.Actor.EmailsByIDs(ctx, in.TargetRole, actorIDs)
	if err != nil {
		s.logger.Warn("查询通知邮箱失败", zap.String("role", string(in.TargetRole)), zap.Error(err))
		return
	}
	subject := fmt.Sprintf("【校园招聘】%s", subjectFor(in.Type))
	for _, id := range actorIDs {
		addr, ok := emails[id]
		if !ok || addr == "" {
			continue
		}
		if err := s.mailer.Enqueue(mail.Message{To: addr, Subject: subject, Body: in.Message}); err != nil {
			s.logger.Warn("邮件入队失败", zap.String("actor_id", id), zap.Error(err))
		}
	}
}

func subjectFor(typ string) string {
	switch typ {
	case model.NotificationNewJob:
		return "新岗位发布"
	case model.NotificationJobApproved:
		return "岗位审核通过"
	case model.NotificationJobRejected:
		return "岗位审核未通过"
	case model.NotificationApplicationReceived:
		return "收到新的岗位申请"
	case model.NotificationApplicationUpdate:
		return "申请状态更新"
	case model.NotificationAccountStatus:
		return "账号状态变更"
	default:
		return "系统通知"
	}
}

func (s *notificationService) List(ctx context.Context, role model.Role, actorID string, req *dto.NotificationListRequest) (*dto.PageResult[model.Notification], error) {
	list, total, err := s.repo.Notification.ListForRecipient(ctx, role, actorID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.String("actor_id", actorID), zap.Error(err))
		return nil, err
	}
	return &dto.PageResult[model.Notification]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, role model.Role, actorID string) (int64, error) {
	n, err := s.repo.Notification.CountUnread(ctx, role, actorID)
	if err != nil {
		s.logger.Error("查询未读数失败", zap.String("actor_id", actorID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string, role model.Role, actorID string) error {
	if err := s.repo.Notification.MarkRead(ctx, id, role, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("标记已读失败", zap.String("notification_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, role model.Role, actorID string) (int64, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, role, actorID)
	if err != nil {
		s.logger.Error("全部标记已读失败", zap.String("actor_id", actorID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// ── 生命周期事件通知 ──

const emitTimeout = 5 * time.Second

// emitter 业务状态变更提交后发送通知
// 与请求上下文解耦并限时，失败只记录日志，不影响已提交的状态变更
type emitter struct {
	notifier NotificationService
	logger   *zap.Logger
	timeout  time.Duration
}

func newEmitter(notifier NotificationService, logger *zap.Logger) *emitter {
	return &emitter{notifier: notifier, logger: logger, timeout: emitTimeout}
}

func (e *emitter) emit(ctx context.Context, in NotifyInput) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	if err := e.notifier.Notify(ctx, in); err != nil {
		e.logger.Warn("通知发送失败，已忽略",
			zap.String("type", in.Type),
			zap.String("target_role", string(in.TargetRole)),
			zap.String("target_actor_id", in.TargetActorID),
			zap.Error(err),
		)
	}
}
