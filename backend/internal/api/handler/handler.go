package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanzel-sc/iwp-placement-portal/backend/config"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/validate"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Job          *JobHandler
	Application  *ApplicationHandler
	Notification *NotificationHandler
	Faculty      *FacultyHandler
	Company      *CompanyHandler
	Student      *StudentHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Job:          NewJobHandler(svc.Job, cfg.Server.BaseURL),
		Application:  NewApplicationHandler(svc.Application),
		Notification: NewNotificationHandler(svc.Notification),
		Faculty:      NewFacultyHandler(svc.Faculty, svc.Dashboard),
		Company:      NewCompanyHandler(svc.Dashboard),
		Student:      NewStudentHandler(svc.Student, svc.Dashboard, int64(cfg.Storage.MaxResumeMB)<<20),
		Export:       NewExportHandler(svc.Export),
	}
}

// ── 错误输出 ──

// handleError 业务错误按类别输出，其余错误记录到 gin 上下文后返回 500
func handleError(c *gin.Context, err error) {
	if be, ok := pkgerrors.As(err); ok {
		response.Biz(c, be)
		return
	}
	_ = c.Error(err)
	response.InternalError(c)
}

// bindError 参数绑定失败，附带字段级说明
func bindError(c *gin.Context, err error) {
	if isBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10007, "请求体过大")
		return
	}
	details := validate.Describe(err)
	if details == nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", details)
}

// okPage 输出服务层分页结果
func okPage[T any](c *gin.Context, page *dto.PageResult[T]) {
	list := page.List
	if list == nil {
		list = []T{}
	}
	response.OKPage(c, list, page.Total, page.Page, page.PageSize)
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
