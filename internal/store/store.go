// Package store 管理单个租户物理库的连接与生命周期。
//
// 每个 Handle 只对应一个物理库，且只归当前操作所有；调用方在任何退出路径上都必须 Close。
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"sitehub/pkg/config"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 支持的方言
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// 物理库标识最大长度（postgres 标识符上限为 63 字节）
const maxIdentifierLength = 63

var identifierPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ErrInvalidIdentifier 物理库标识不合法
var ErrInvalidIdentifier = errors.New("物理库标识不合法")

// Handle 单个租户物理库的会话
type Handle interface {
	Identifier() string
	DB() *gorm.DB
	Dialect() string
	// IsBenignAlreadyAppliedError 判断错误是否属于“已存在”类（重复列、重复索引、重复键、删除不存在的列）
	IsBenignAlreadyAppliedError(err error) bool
	Close() error
}

// Backend 物理库后端：负责创建、删除、打开租户库，并提供本后端的错误分类
type Backend interface {
	Dialect() string
	Exists(ctx context.Context, identifier string) (bool, error)
	Create(ctx context.Context, identifier string) error
	Drop(ctx context.Context, identifier string) error
	Open(ctx context.Context, identifier string) (Handle, error)
	IsBenignAlreadyAppliedError(err error) bool
}

// Classifier 已存在类错误判定函数
type Classifier func(err error) bool

// PoolConfig 租户连接池配置
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Identifier 由租户名确定性地计算物理库标识；租户名不含下划线，因此映射是单射
func Identifier(prefix, name string) string {
	return prefix + strings.ReplaceAll(name, "-", "_")
}

// ValidateIdentifier 校验即将拼入DDL的物理库标识
func ValidateIdentifier(identifier string) error {
	if len(identifier) == 0 || len(identifier) > maxIdentifierLength || !identifierPattern.MatchString(identifier) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	return nil
}

type handle struct {
	identifier string
	db         *gorm.DB
	classify   Classifier
	closeFn    func() error
}

// NewHandle 包装一个已打开的gorm连接，Close 时关闭底层连接池
func NewHandle(identifier string, db *gorm.DB, classify Classifier) Handle {
	return &handle{
		identifier: identifier,
		db:         db,
		classify:   classify,
		closeFn: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// Borrow 借用一个由他人管理生命周期的连接（例如控制面库），Close 不会关闭它
func Borrow(identifier string, db *gorm.DB, classify Classifier) Handle {
	return &handle{
		identifier: identifier,
		db:         db,
		classify:   classify,
		closeFn:    func() error { return nil },
	}
}

func (h *handle) Identifier() string { return h.identifier }

func (h *handle) DB() *gorm.DB { return h.db }

func (h *handle) Dialect() string { return h.db.Dialector.Name() }

func (h *handle) IsBenignAlreadyAppliedError(err error) bool {
	if err == nil || h.classify == nil {
		return false
	}
	return h.classify(err)
}

func (h *handle) Close() error {
	return h.closeFn()
}

// ClassifierFor 按方言返回错误分类函数
func ClassifierFor(dialect string) Classifier {
	switch dialect {
	case DialectMySQL:
		return IsBenignMySQLError
	default:
		return IsBenignPostgresError
	}
}

// IsUniqueViolation 违反唯一约束（postgres 23505 / mysql 1062）。
// 用于区分“索引已存在”与“已有数据存在重复值”
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

// tenantGormConfig 租户库的gorm配置：保留驱动原始错误以便按错误码分类
func tenantGormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

// applyPool 设置连接池并验证连通性
func applyPool(ctx context.Context, db *gorm.DB, pool PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取数据库实例失败: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("连接租户库失败: %w", err)
	}
	return nil
}

// NewBackend 按方言创建后端
func NewBackend(admin *gorm.DB, cfg config.DatabaseConfig, pool PoolConfig) (Backend, error) {
	switch cfg.Driver {
	case DialectPostgres, "":
		return NewPostgresBackend(admin, cfg, pool), nil
	case DialectMySQL:
		return NewMySQLBackend(admin, cfg, pool), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}
