package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/jwt"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/response"
)

// TokenBlacklist 已注销 Token 查询（Redis 实现）
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// ActorResolver 按 (role, id) 加载实时账号
type ActorResolver interface {
	ResolveActor(ctx context.Context, role model.Role, id string) (model.Actor, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，
// 再按声明中的身份加载实时账号并拒绝不可登录的账号；blacklist 为 nil 时跳过注销检查
func JWTAuth(jwtMgr *jwt.Manager, blacklist TokenBlacklist, resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			msg := "Token 无效"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token 已过期"
			}
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		// Redis 出错时降级放行
		if blacklist != nil && claims.ID != "" {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		role := model.Role(claims.Role)
		if !role.Valid() {
			response.Unauthorized(c, 10002, "Token 无效")
			c.Abort()
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), role, claims.ActorID)
		if err != nil {
			if be, ok := pkgerrors.As(err); ok {
				response.Biz(c, be)
			} else {
				_ = c.Error(err)
				response.InternalError(c)
			}
			c.Abort()
			return
		}

		// 停用 / 被拒的账号与登录同样拒绝，读接口也不放行
		if !actor.CanLogin() {
			response.Forbidden(c, 11003, "账号已停用或未通过审核")
			c.Abort()
			return
		}

		// 将身份信息注入上下文
		c.Set("actor_id", actor.GetID())
		c.Set("role", string(role))
		c.Set("actor", actor)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前账号是否具有指定角色之一
func RoleAuth(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if role == string(r) {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}

// ActiveActor 账号状态中间件
// 待审核的企业只能查看，不能执行写操作
func ActiveActor(requireCompanyApproval bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("actor")
		actor, ok := v.(model.Actor)
		if !exists || !ok {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		if !actor.CanAct(requireCompanyApproval) {
			response.Forbidden(c, 10006, "账号尚未通过审核或已停用")
			c.Abort()
			return
		}

		c.Next()
	}
}
