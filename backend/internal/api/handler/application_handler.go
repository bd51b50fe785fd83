package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
)

// ApplicationHandler 申请模块 HTTP 处理器
type ApplicationHandler struct {
	appSvc service.ApplicationService
}

// NewApplicationHandler 创建 ApplicationHandler
func NewApplicationHandler(appSvc service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appSvc: appSvc}
}

// Apply 学生申请岗位
// POST /api/v1/students/apply/:jobId
func (h *ApplicationHandler) Apply(c *gin.Context) {
	studentID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "jobId")
	if !ok {
		return
	}

	app, err := h.appSvc.Apply(c.Request.Context(), studentID, jobID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, app)
}

// Decide 企业处理申请（录用 / 未通过）
// PUT /api/v1/applications/:id/status
func (h *ApplicationHandler) Decide(c *gin.Context) {
	companyID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.DecideApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	app, err := h.appSvc.Decide(c.Request.Context(), id, companyID, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, app)
}

// ListForStudent 我的申请
// GET /api/v1/students/applications
func (h *ApplicationHandler) ListForStudent(c *gin.Context) {
	studentID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ApplicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.appSvc.ListForStudent(c.Request.Context(), studentID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	okPage(c, page)
}

// ListForCompany 本企业收到的申请
// GET /api/v1/company/applications
func (h *ApplicationHandler) ListForCompany(c *gin.Context) {
	companyID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ApplicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.appSvc.ListForCompany(c.Request.Context(), companyID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	okPage(c, page)
}

// ListForFaculty 全部申请
// GET /api/v1/faculty/applications
func (h *ApplicationHandler) ListForFaculty(c *gin.Context) {
	var req dto.FacultyApplicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.appSvc.ListForFaculty(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	okPage(c, page)
}
