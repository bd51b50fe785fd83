package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
)

// NotificationRepository 通知数据访问接口
// 接收者可见范围：target_role 匹配，且为定向给自己或角色广播
// 广播通知的已读状态按接收者分别记录
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	BatchCreate(ctx context.Context, ns []model.Notification) error
	ListForRecipient(ctx context.Context, role model.Role, actorID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, role model.Role, actorID string) (int64, error)
	MarkRead(ctx context.Context, id string, role model.Role, actorID string) error
	MarkAllRead(ctx context.Context, role model.Role, actorID string) (int64, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

const notificationBatchSize = 500

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) BatchCreate(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&ns, notificationBatchSize).Error
}

func (r *notificationRepo) visible(ctx context.Context, role model.Role, actorID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notifications.target_role = ?", role).
		Where("(notifications.target_actor_id = ? OR notifications.target_actor_id IS NULL)", actorID)
}

// ── 已读状态 ──
// 定向通知看 is_read，角色广播看接收者自己的回执

const receiptExists = `EXISTS (SELECT 1 FROM notification_reads nr
	WHERE nr.notification_id = notifications.id AND nr.actor_id = ?)`

const notificationColumns = `notifications.id, notifications.type, notifications.message,
	notifications.target_role, notifications.target_actor_id, notifications.job_id,
	notifications.application_id, notifications.created_at,
	(notifications.is_read OR ` + receiptExists + `) AS is_read`

func (r *notificationRepo) unread(ctx context.Context, role model.Role, actorID string) *gorm.DB {
	return r.visible(ctx, role, actorID).
		Where("notifications.is_read = ?", false).
		Where("NOT "+receiptExists, actorID)
}

func (r *notificationRepo) ListForRecipient(ctx context.Context, role model.Role, actorID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var list []model.Notification
	var total int64

	scope := func() *gorm.DB {
		if unreadOnly {
			return r.unread(ctx, role, actorID)
		}
		return r.visible(ctx, role, actorID)
	}

	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := scope().
		Select(notificationColumns, actorID).
		Order("notifications.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, role model.Role, actorID string) (int64, error) {
	var n int64
	err := r.unread(ctx, role, actorID).Count(&n).Error
	return n, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, id string, role model.Role, actorID string) error {
	var n model.Notification
	err := r.visible(ctx, role, actorID).
		Select("notifications.id, notifications.target_actor_id").
		Where("notifications.id = ?", id).
		Take(&n).Error
	if err != nil {
		return err
	}

	if !n.IsBroadcast() {
		return r.db.WithContext(ctx).
			Model(&model.Notification{}).
			Where("id = ?", id).
			UpdateColumn("is_read", true).Error
	}

	receipt := model.NotificationRead{NotificationID: id, ActorID: actorID, ReadAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&receipt).Error
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, role model.Role, actorID string) (int64, error) {
	var marked int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Notification{}).
			Where("target_role = ? AND target_actor_id = ? AND is_read = ?", role, actorID, false).
			UpdateColumn("is_read", true)
		if result.Error != nil {
			return result.Error
		}
		marked = result.RowsAffected

		result = tx.Exec(`INSERT INTO notification_reads (notification_id, actor_id, read_at)
			SELECT n.id, ?, NOW() FROM notifications n
			WHERE n.target_role = ? AND n.target_actor_id IS NULL
			ON CONFLICT DO NOTHING`, actorID, role)
		if result.Error != nil {
			return result.Error
		}
		marked += result.RowsAffected
		return nil
	})
	return marked, err
}
