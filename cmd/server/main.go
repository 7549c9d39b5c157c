package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitehub/internal/bootstrap"
	"sitehub/internal/database"
	"sitehub/internal/router"
	"sitehub/pkg/config"
	"sitehub/pkg/jwt"
	"sitehub/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting SiteHub control plane...")

	// 初始化数据库
	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		if err := database.CloseRedis(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	app, err := bootstrap.New(cfg, database.GetDB(), database.NewTenantCache(cfg.Redis), appLogger,
		bootstrap.Options{ControlPlane: database.ControlPlaneHandle()})
	if err != nil {
		appLogger.Fatalf("Failed to assemble components: %v", err)
	}

	if err := seedData(app); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	// 启动全量同步调度器（在路由初始化前）
	if err := app.Scheduler.Start(); err != nil {
		appLogger.Errorf("Failed to start fleet sync scheduler: %v", err)
		// 不影响主服务启动
	}
	defer app.Scheduler.Stop()

	r := router.SetupRouter(app, jwt.FromConfig(cfg.JWT))

	// 开通与全量同步都可能持续较久，不设置写超时
	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}
