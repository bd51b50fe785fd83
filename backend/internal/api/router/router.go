package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hanzel-sc/iwp-placement-portal/backend/config"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/api/handler"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/api/middleware"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/jwt"
)

// Pinger 健康检查探针
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps 路由层依赖
// Blacklist / Limiter 为 nil 时对应检查降级放行
type Deps struct {
	Resolver  middleware.ActorResolver
	Blacklist middleware.TokenBlacklist
	Limiter   middleware.RateLimiter
	DB        Pinger
}

// 非上传请求之外额外预留的请求体余量
const bodySlack = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, deps Deps, logger *zap.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(int64(cfg.Storage.MaxResumeMB)<<20 + bodySlack))

	// ── 健康检查 ──
	r.GET("/health", health(deps.DB))

	// 本地存储时直接提供简历文件
	if cfg.Storage.Type == "" || cfg.Storage.Type == "local" {
		r.Static("/uploads", cfg.Storage.BasePath)
	}

	authn := middleware.JWTAuth(jwtMgr, deps.Blacklist, deps.Resolver)
	active := middleware.ActiveActor(cfg.Feature.RequireCompanyApproval)
	company := middleware.RoleAuth(model.RoleCompany)
	student := middleware.RoleAuth(model.RoleStudent)
	faculty := middleware.RoleAuth(model.RoleFaculty)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（注册 / 登录限流）
		auth := v1.Group("/auth")
		{
			limited := middleware.RateLimit(deps.Limiter, cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow)
			auth.POST("/:role/register", limited, h.Auth.Register)
			auth.POST("/:role/login", limited, h.Auth.Login)
			auth.POST("/logout", authn, h.Auth.Logout)
			auth.GET("/me", authn, h.Auth.Me)
		}

		// 公开岗位
		v1.GET("/jobs", h.Job.ListPublic)
		v1.GET("/jobs/:id", h.Job.GetPublic)
		v1.GET("/calendar/jobs.ics", h.Job.Calendar)

		authorized := v1.Group("")
		authorized.Use(authn)
		{
			// 通知模块（三类身份共用）
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			// 企业：岗位与申请处理
			jobs := authorized.Group("/jobs", company, active)
			{
				jobs.POST("", h.Job.Create)
				jobs.PUT("/:id", h.Job.Update)
				jobs.DELETE("/:id", h.Job.SoftDelete)
				jobs.DELETE("/:id/permanent", h.Job.HardDelete)
			}
			authorized.PUT("/applications/:id/status", company, active, h.Application.Decide)

			companyGroup := authorized.Group("/company", company)
			{
				companyGroup.GET("/jobs", h.Job.ListForCompany)
				companyGroup.GET("/applications", h.Application.ListForCompany)
				companyGroup.GET("/dashboard-stats", h.Company.DashboardStats)
			}

			// 学生
			students := authorized.Group("/students", student)
			{
				students.POST("/apply/:jobId", active, h.Application.Apply)
				students.GET("/applications", h.Application.ListForStudent)
				students.POST("/resume", active, h.Student.UploadResume)
				students.GET("/dashboard-stats", h.Student.DashboardStats)
			}

			// 教师
			facultyGroup := authorized.Group("/faculty", faculty)
			{
				facultyGroup.GET("/dashboard-stats", h.Faculty.DashboardStats)
				facultyGroup.GET("/jobs", h.Job.ListForFaculty)
				facultyGroup.POST("/jobs/:id/approve", h.Job.Approve)
				facultyGroup.POST("/jobs/:id/reject", h.Job.Reject)
				facultyGroup.POST("/notify-students", h.Faculty.NotifyStudents)
				facultyGroup.GET("/applications", h.Application.ListForFaculty)
				facultyGroup.GET("/applications/export", h.Export.ExportApplications)
				facultyGroup.GET("/students", h.Faculty.ListStudents)
				facultyGroup.GET("/students/:id", h.Faculty.GetStudent)
				facultyGroup.GET("/companies", h.Faculty.ListCompanies)
				facultyGroup.PUT("/companies/:id/status", h.Faculty.UpdateCompanyStatus)
			}
		}
	}

	return r
}

func health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
