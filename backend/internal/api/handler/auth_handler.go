package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// roleParam 解析 :role 路径参数
func roleParam(c *gin.Context) (model.Role, bool) {
	role := model.Role(c.Param("role"))
	if !role.Valid() {
		response.NotFound(c, 10005, "未知的账号类型")
		return "", false
	}
	return role, true
}

// Register 注册
// POST /api/v1/auth/:role/register
func (h *AuthHandler) Register(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}

	var req interface{}
	switch role {
	case model.RoleCompany:
		req = &dto.CompanyRegisterRequest{}
	case model.RoleStudent:
		req = &dto.StudentRegisterRequest{}
	case model.RoleFaculty:
		req = &dto.FacultyRegisterRequest{}
	}
	if err := c.ShouldBindJSON(req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), role, req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// Login 登录
// POST /api/v1/auth/:role/login
func (h *AuthHandler) Login(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), role, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout 登出，当前 Token 加入黑名单
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenMeta(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// Me 当前账号信息
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	response.OK(c, h.authSvc.Me(actor))
}
