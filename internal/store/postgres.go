package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sitehub/pkg/config"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// postgres 中视为“已应用”的错误码
var benignPostgresCodes = map[string]bool{
	"42P07": true, // duplicate_table（含重复索引）
	"42701": true, // duplicate_column
	"42710": true, // duplicate_object（重复约束）
	"23505": true, // unique_violation（重复键）
}

// IsBenignPostgresError 判断postgres错误是否属于已存在类
func IsBenignPostgresError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if benignPostgresCodes[pgErr.Code] {
		return true
	}
	// undefined_column 只有在 DROP COLUMN 场景（消息带 of relation）才视为已应用
	return pgErr.Code == "42703" && strings.Contains(pgErr.Message, "of relation")
}

// PostgresBackend 每个租户一个postgres数据库
type PostgresBackend struct {
	admin *gorm.DB // 控制面连接，用于执行 CREATE/DROP DATABASE
	cfg   config.DatabaseConfig
	pool  PoolConfig
}

// NewPostgresBackend 创建postgres后端
func NewPostgresBackend(admin *gorm.DB, cfg config.DatabaseConfig, pool PoolConfig) *PostgresBackend {
	return &PostgresBackend{admin: admin, cfg: cfg, pool: pool}
}

func (b *PostgresBackend) Dialect() string { return DialectPostgres }

func (b *PostgresBackend) IsBenignAlreadyAppliedError(err error) bool {
	return IsBenignPostgresError(err)
}

// Exists 检查物理库是否存在
func (b *PostgresBackend) Exists(ctx context.Context, identifier string) (bool, error) {
	var count int64
	err := b.admin.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM pg_database WHERE datname = ?", identifier).
		Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询物理库 %s 失败: %w", identifier, err)
	}
	return count > 0, nil
}

// Create 创建空的物理库
func (b *PostgresBackend) Create(ctx context.Context, identifier string) error {
	if err := ValidateIdentifier(identifier); err != nil {
		return err
	}
	if err := b.admin.WithContext(ctx).Exec("CREATE DATABASE " + pq.QuoteIdentifier(identifier)).Error; err != nil {
		return fmt.Errorf("创建物理库 %s 失败: %w", identifier, err)
	}
	return nil
}

// Drop 删除物理库，先断开残留连接
func (b *PostgresBackend) Drop(ctx context.Context, identifier string) error {
	if err := ValidateIdentifier(identifier); err != nil {
		return err
	}
	db := b.admin.WithContext(ctx)
	if err := db.Exec(
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = ? AND pid <> pg_backend_pid()",
		identifier,
	).Error; err != nil {
		return fmt.Errorf("断开物理库 %s 连接失败: %w", identifier, err)
	}
	if err := db.Exec("DROP DATABASE IF EXISTS " + pq.QuoteIdentifier(identifier)).Error; err != nil {
		return fmt.Errorf("删除物理库 %s 失败: %w", identifier, err)
	}
	return nil
}

// Open 打开租户库连接
func (b *PostgresBackend) Open(ctx context.Context, identifier string) (Handle, error) {
	if err := ValidateIdentifier(identifier); err != nil {
		return nil, err
	}
	db, err := gorm.Open(postgres.Open(PostgresDSN(b.cfg, identifier)), tenantGormConfig())
	if err != nil {
		return nil, fmt.Errorf("打开租户库 %s 失败: %w", identifier, err)
	}
	if err := applyPool(ctx, db, b.pool); err != nil {
		return nil, err
	}
	return NewHandle(identifier, db, IsBenignPostgresError), nil
}

// PostgresDSN 拼接指定数据库的连接串
func PostgresDSN(cfg config.DatabaseConfig, dbName string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, dbName, cfg.SSLMode)
}
