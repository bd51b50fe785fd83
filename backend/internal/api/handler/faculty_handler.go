package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
)

// FacultyHandler 教师管理 HTTP 处理器
type FacultyHandler struct {
	facultySvc   service.FacultyService
	dashboardSvc service.DashboardService
}

// NewFacultyHandler 创建 FacultyHandler
func NewFacultyHandler(facultySvc service.FacultyService, dashboardSvc service.DashboardService) *FacultyHandler {
	return &FacultyHandler{facultySvc: facultySvc, dashboardSvc: dashboardSvc}
}

// DashboardStats 教师看板
// GET /api/v1/faculty/dashboard-stats
func (h *FacultyHandler) DashboardStats(c *gin.Context) {
	stats, err := h.dashboardSvc.FacultyStats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, stats)
}

// ListCompanies 企业列表
// GET /api/v1/faculty/companies
func (h *FacultyHandler) ListCompanies(c *gin.Context) {
	var req dto.CompanyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.facultySvc.ListCompanies(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	okPage(c, page)
}

// UpdateCompanyStatus 审核 / 停用企业
// PUT /api/v1/faculty/companies/:id/status
func (h *FacultyHandler) UpdateCompanyStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCompanyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.facultySvc.UpdateCompanyStatus(c.Request.Context(), id, req.Status); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListStudents 学生列表
// GET /api/v1/faculty/students
func (h *FacultyHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.facultySvc.ListStudents(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	okPage(c, page)
}

// GetStudent 学生详情（含申请记录）
// GET /api/v1/faculty/students/:id
func (h *FacultyHandler) GetStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.facultySvc.GetStudent(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, detail)
}

// NotifyStudents 向指定届别学生推送岗位
// POST /api/v1/faculty/notify-students
func (h *FacultyHandler) NotifyStudents(c *gin.Context) {
	var req dto.NotifyStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	n, err := h.facultySvc.NotifyStudents(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, dto.NotifyStudentsResponse{Notified: n})
}
