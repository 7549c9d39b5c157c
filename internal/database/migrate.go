package database

import (
	"sitehub/internal/models"
	"sitehub/pkg/logger"

	"gorm.io/gorm"
)

// ControlPlaneModels 控制面自有的表
func ControlPlaneModels() []interface{} {
	return []interface{}{
		&models.Tenant{},
		&models.ProvisioningRecord{},
		&models.Operator{},
	}
}

// Migrate 执行控制面表迁移；标准内容表由全量同步负责
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB 对指定连接执行控制面表迁移
func MigrateDB(db *gorm.DB) error {
	appLogger := logger.GetLogger()
	appLogger.Info("开始迁移控制面数据表...")

	if err := db.AutoMigrate(ControlPlaneModels()...); err != nil {
		appLogger.Errorf("控制面数据表迁移失败: %v", err)
		return err
	}

	appLogger.Info("控制面数据表迁移完成")
	return nil
}
