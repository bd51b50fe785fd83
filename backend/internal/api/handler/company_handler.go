package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
)

// CompanyHandler 企业看板 HTTP 处理器
type CompanyHandler struct {
	dashboardSvc service.DashboardService
}

// NewCompanyHandler 创建 CompanyHandler
func NewCompanyHandler(dashboardSvc service.DashboardService) *CompanyHandler {
	return &CompanyHandler{dashboardSvc: dashboardSvc}
}

// DashboardStats 企业看板
// GET /api/v1/company/dashboard-stats
func (h *CompanyHandler) DashboardStats(c *gin.Context) {
	companyID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	stats, err := h.dashboardSvc.CompanyStats(c.Request.Context(), companyID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, stats)
}
