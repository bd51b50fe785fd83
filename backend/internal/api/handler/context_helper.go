package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
)

// MustGetActorID 从 Gin 上下文中安全提取 actor_id。
// 如果 JWT 中间件未正确注入 actor_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActorID(c *gin.Context) (string, bool) {
	v, exists := c.Get("actor_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (model.Role, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || !model.Role(s).Valid() {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return model.Role(s), true
}

// MustGetActor 从 Gin 上下文中提取中间件加载的实时账号。
func MustGetActor(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get("actor")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	a, ok := v.(model.Actor)
	if !ok || a == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return a, true
}

// tokenMeta 当前 Token 的 jti 与过期时间，缺失时返回零值
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	t, _ := exp.(time.Time)
	return jti, t
}

// pathID 读取并校验 UUID 路径参数
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(c, 10001, "ID 格式不正确")
		return "", false
	}
	return id, true
}
