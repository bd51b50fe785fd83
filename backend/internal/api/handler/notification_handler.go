package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
)

// NotificationHandler 通知模块 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// recipient 当前登录账号作为通知接收方
func recipient(c *gin.Context) (model.Role, string, bool) {
	role, ok := MustGetRole(c)
	if !ok {
		return "", "", false
	}
	id, ok := MustGetActorID(c)
	if !ok {
		return "", "", false
	}
	return role, id, true
}

// List 我的通知（定向 + 本角色广播）
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	role, actorID, ok := recipient(c)
	if !ok {
		return
	}

	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.notificationSvc.List(c.Request.Context(), role, actorID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	okPage(c, page)
}

// UnreadCount 未读数
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	role, actorID, ok := recipient(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.UnreadCount(c.Request.Context(), role, actorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, dto.UnreadCountResponse{Unread: n})
}

// MarkRead 标记单条已读
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	role, actorID, ok := recipient(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), id, role, actorID); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// MarkAllRead 全部标记已读
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	role, actorID, ok := recipient(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.MarkAllRead(c.Request.Context(), role, actorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, dto.MarkAllReadResponse{Updated: n})
}
