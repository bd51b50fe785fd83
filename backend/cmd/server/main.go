package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hanzel-sc/iwp-placement-portal/backend/config"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/api/handler"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/api/router"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/service"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/database"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/jwt"
	applogger "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/logger"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/mail"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/redis"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/storage"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/validate"
)

func main() {
	// 0. .env 文件可选
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Server.Timezone),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, applogger.GormLevel(cfg.Log.Level), logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时黑名单与限流降级放行）
	var (
		routerDeps = router.Deps{}
		svcDeps    = service.Deps{}
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流将不可用", zap.Error(err))
		rdb = nil
	} else {
		routerDeps.Blacklist = rdb
		routerDeps.Limiter = rdb
		svcDeps.Blacklist = rdb
	}

	// 5. 请求校验规则
	if err := validate.Register(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	// 6. 文件存储
	store, err := storage.New(&cfg.Storage)
	if err != nil {
		logger.Fatal("初始化文件存储失败", zap.Error(err), zap.String("type", cfg.Storage.Type))
	}
	svcDeps.Storage = store

	// 7. 邮件队列（可选）
	var mailQueue *mail.Queue
	if cfg.Mail.Enabled {
		mailQueue = mail.NewQueue(mail.NewSMTPSender(&cfg.Mail), cfg.Mail.QueueSize, cfg.Mail.Workers, logger)
		mailQueue.Start()
		svcDeps.Mailer = mailQueue
		logger.Info("邮件通知已启用", zap.String("smtp_host", cfg.Mail.SMTPHost))
	}

	// 8. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, svcDeps, logger)
	h := handler.NewHandler(cfg, svc)

	routerDeps.Resolver = svc.Auth
	routerDeps.DB = repo

	// 9. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, routerDeps, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 请求处理完毕后再排空邮件队列
	if mailQueue != nil {
		if err := mailQueue.Close(ctx); err != nil {
			logger.Warn("邮件队列未能在超时前排空", zap.Error(err))
		}
	}

	if err := database.Close(db); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("关闭 Redis 连接失败", zap.Error(err))
		}
	}

	logger.Info("服务器已关闭")
}
