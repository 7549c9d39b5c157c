// Package database 管理控制面数据库与Redis连接。
package database

import (
	"errors"
	"fmt"

	"sitehub/internal/store"
	"sitehub/pkg/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 控制面连接
var DB *gorm.DB

var dbConfig config.DatabaseConfig

// Initialize 连接控制面数据库
func Initialize(cfg *config.Config) error {
	db, err := Connect(cfg.Database, cfg.Server.Mode)
	if err != nil {
		return err
	}
	DB = db
	dbConfig = cfg.Database
	return nil
}

// Connect 按方言连接控制面数据库；控制面开启错误翻译，唯一键冲突统一为 gorm.ErrDuplicatedKey
func Connect(cfg config.DatabaseConfig, mode string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case store.DialectPostgres, "":
		dialector = postgres.Open(store.PostgresDSN(cfg, cfg.DBName))
	case store.DialectMySQL:
		dialector = mysql.Open(store.MySQLDSN(cfg, cfg.DBName))
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}

	logLevel := gormlogger.Warn
	if mode == "debug" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// GetDB 获取控制面连接
func GetDB() *gorm.DB {
	return DB
}

// ControlPlaneHandle 以借用方式包装控制面连接，供全量同步使用
func ControlPlaneHandle() store.Handle {
	return store.Borrow(dbConfig.DBName, DB, ControlPlaneClassifier(dbConfig.Driver))
}

// ControlPlaneClassifier 控制面的已存在类错误判定；唯一键冲突已被翻译，需要单独识别
func ControlPlaneClassifier(dialect string) store.Classifier {
	classify := store.ClassifierFor(dialect)
	return func(err error) bool {
		return errors.Is(err, gorm.ErrDuplicatedKey) || classify(err)
	}
}

// Close 关闭控制面连接
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
