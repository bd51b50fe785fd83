package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
)

// resumeField 简历上传的表单字段名
const resumeField = "resume"

// StudentHandler 学生资料 HTTP 处理器
type StudentHandler struct {
	studentSvc     service.StudentService
	dashboardSvc   service.DashboardService
	maxResumeBytes int64
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService, dashboardSvc service.DashboardService, maxResumeBytes int64) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc, dashboardSvc: dashboardSvc, maxResumeBytes: maxResumeBytes}
}

// UploadResume 上传简历（PDF / DOC / DOCX）
// POST /api/v1/students/resume
func (h *StudentHandler) UploadResume(c *gin.Context) {
	studentID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile(resumeField)
	if err != nil {
		if isBodyTooLarge(err) {
			handleError(c, service.ErrResumeTooLarge)
			return
		}
		response.BadRequest(c, 10001, "请选择要上传的简历文件")
		return
	}
	if service.ResumeContentType(fh.Filename) == "" {
		handleError(c, service.ErrResumeInvalidType)
		return
	}
	if h.maxResumeBytes > 0 && fh.Size > h.maxResumeBytes {
		handleError(c, service.ErrResumeTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()

	url, err := h.studentSvc.UploadResume(c.Request.Context(), studentID, h.maxResumeBytes, service.ResumeUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Body:     f,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, dto.ResumeResponse{ResumeURL: url})
}

// DashboardStats 学生看板
// GET /api/v1/students/dashboard-stats
func (h *StudentHandler) DashboardStats(c *gin.Context) {
	studentID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	stats, err := h.dashboardSvc.StudentStats(c.Request.Context(), studentID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, stats)
}
