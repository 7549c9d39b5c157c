package main

import (
	"context"
	"fmt"

	"sitehub/internal/bootstrap"
	"sitehub/pkg/logger"
)

// 默认运维账号
const (
	defaultOperatorUsername = "admin"
	defaultOperatorEmail    = "admin@example.com"
)

// seedData 初始化种子数据
func seedData(app *bootstrap.App) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	created, err := app.Operators.EnsureDefault(context.Background(),
		defaultOperatorUsername, defaultOperatorEmail, app.Config.Seed.AdminPassword)
	if err != nil {
		return fmt.Errorf("创建默认运维账号失败: %v", err)
	}
	if created {
		appLogger.Infof("已创建默认运维账号 %s", defaultOperatorUsername)
	} else {
		appLogger.Info("运维账号已存在，跳过创建")
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}
