package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
)

// JobHandler 岗位模块 HTTP 处理器
type JobHandler struct {
	jobSvc  service.JobService
	baseURL string
}

// NewJobHandler 创建 JobHandler，baseURL 用于日历中的岗位链接
func NewJobHandler(jobSvc service.JobService, baseURL string) *JobHandler {
	return &JobHandler{jobSvc: jobSvc, baseURL: baseURL}
}

// ── 公开接口 ──

// ListPublic 公开岗位列表（已上线且未截止）
// GET /api/v1/jobs
func (h *JobHandler) ListPublic(c *gin.Context) {
	var req dto.PublicJobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.jobSvc.ListPublic(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	okPage(c, page)
}

// GetPublic 公开岗位详情
// GET /api/v1/jobs/:id
func (h *JobHandler) GetPublic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	job, err := h.jobSvc.GetPublic(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, job)
}

// Calendar 岗位截止日期日历订阅
// GET /api/v1/calendar/jobs.ics
func (h *JobHandler) Calendar(c *gin.Context) {
	ics, err := h.jobSvc.Calendar(c.Request.Context(), h.baseURL)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="jobs.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// ── 企业接口 ──

// Create 发布岗位
// POST /api/v1/jobs
func (h *JobHandler) Create(c *gin.Context) {
	companyID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	job, err := h.jobSvc.Create(c.Request.Context(), companyID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, job)
}

// Update 修改本企业岗位
// PUT /api/v1/jobs/:id
func (h *JobHandler) Update(c *gin.Context) {
	companyID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	job, err := h.jobSvc.Update(c.Request.Context(), id, companyID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, job)
}

// SoftDelete 下线并标记删除
// DELETE /api/v1/jobs/:id
func (h *JobHandler) SoftDelete(c *gin.Context) {
	companyID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.jobSvc.SoftDelete(c.Request.Context(), id, companyID); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// HardDelete 永久删除（仅无申请时允许）
// DELETE /api/v1/jobs/:id/permanent
func (h *JobHandler) HardDelete(c *gin.Context) {
	companyID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.jobSvc.HardDelete(c.Request.Context(), id, companyID); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListForCompany 本企业岗位列表
// GET /api/v1/company/jobs
func (h *JobHandler) ListForCompany(c *gin.Context) {
	companyID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.CompanyJobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.jobSvc.ListForCompany(c.Request.Context(), companyID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	okPage(c, page)
}

// ── 教师接口 ──

// ListForFaculty 岗位审核列表
// GET /api/v1/faculty/jobs
func (h *JobHandler) ListForFaculty(c *gin.Context) {
	var req dto.FacultyJobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.jobSvc.ListForFaculty(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	okPage(c, page)
}

// Approve 审核通过
// POST /api/v1/faculty/jobs/:id/approve
func (h *JobHandler) Approve(c *gin.Context) {
	h.moderate(c, service.ModerationApprove)
}

// Reject 驳回或下架，可附原因
// POST /api/v1/faculty/jobs/:id/reject
func (h *JobHandler) Reject(c *gin.Context) {
	h.moderate(c, service.ModerationReject)
}

func (h *JobHandler) moderate(c *gin.Context, action string) {
	facultyID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	// 请求体可省略
	var req dto.ModerateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	job, err := h.jobSvc.Moderate(c.Request.Context(), id, facultyID, action, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, job)
}
