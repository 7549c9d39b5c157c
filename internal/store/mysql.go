package store

import (
	"context"
	"errors"
	"fmt"

	"sitehub/pkg/config"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// mysql 中视为“已应用”的错误号
var benignMySQLNumbers = map[uint16]bool{
	1050: true, // ER_TABLE_EXISTS_ERROR
	1060: true, // ER_DUP_FIELDNAME
	1061: true, // ER_DUP_KEYNAME
	1062: true, // ER_DUP_ENTRY
	1091: true, // ER_CANT_DROP_FIELD_OR_KEY
	1826: true, // ER_FK_DUP_NAME
}

// IsBenignMySQLError 判断mysql错误是否属于已存在类
func IsBenignMySQLError(err error) bool {
	var myErr *mysqldriver.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return benignMySQLNumbers[myErr.Number]
}

// MySQLBackend 每个租户一个mysql schema
type MySQLBackend struct {
	admin *gorm.DB
	cfg   config.DatabaseConfig
	pool  PoolConfig
}

// NewMySQLBackend 创建mysql后端
func NewMySQLBackend(admin *gorm.DB, cfg config.DatabaseConfig, pool PoolConfig) *MySQLBackend {
	return &MySQLBackend{admin: admin, cfg: cfg, pool: pool}
}

func (b *MySQLBackend) Dialect() string { return DialectMySQL }

func (b *MySQLBackend) IsBenignAlreadyAppliedError(err error) bool {
	return IsBenignMySQLError(err)
}

// Exists 检查schema是否存在
func (b *MySQLBackend) Exists(ctx context.Context, identifier string) (bool, error) {
	var count int64
	err := b.admin.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?", identifier).
		Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询物理库 %s 失败: %w", identifier, err)
	}
	return count > 0, nil
}

// Create 创建schema；标识已校验为 [a-z0-9_]，可直接反引号包裹
func (b *MySQLBackend) Create(ctx context.Context, identifier string) error {
	if err := ValidateIdentifier(identifier); err != nil {
		return err
	}
	stmt := "CREATE DATABASE `" + identifier + "` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"
	if err := b.admin.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("创建物理库 %s 失败: %w", identifier, err)
	}
	return nil
}

// Drop 删除schema
func (b *MySQLBackend) Drop(ctx context.Context, identifier string) error {
	if err := ValidateIdentifier(identifier); err != nil {
		return err
	}
	if err := b.admin.WithContext(ctx).Exec("DROP DATABASE IF EXISTS `" + identifier + "`").Error; err != nil {
		return fmt.Errorf("删除物理库 %s 失败: %w", identifier, err)
	}
	return nil
}

// Open 打开租户库连接
func (b *MySQLBackend) Open(ctx context.Context, identifier string) (Handle, error) {
	if err := ValidateIdentifier(identifier); err != nil {
		return nil, err
	}
	db, err := gorm.Open(mysql.Open(MySQLDSN(b.cfg, identifier)), tenantGormConfig())
	if err != nil {
		return nil, fmt.Errorf("打开租户库 %s 失败: %w", identifier, err)
	}
	if err := applyPool(ctx, db, b.pool); err != nil {
		return nil, err
	}
	return NewHandle(identifier, db, IsBenignMySQLError), nil
}

// MySQLDSN 拼接指定schema的连接串
func MySQLDSN(cfg config.DatabaseConfig, dbName string) string {
	dsn := mysqldriver.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = cfg.Host + ":" + cfg.Port
	dsn.DBName = dbName
	dsn.ParseTime = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}
