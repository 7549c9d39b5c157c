// Package storetest 提供基于 sqlmock 的 gorm 连接，供各包测试使用
package storetest

import (
	"testing"

	"sitehub/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewMockDB 创建postgres方言的gorm连接，底层为sqlmock
func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

// NewMockHandle 创建借用型Handle，错误分类使用postgres规则
func NewMockHandle(t *testing.T, identifier string) (store.Handle, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := NewMockDB(t)
	return store.Borrow(identifier, db, store.IsBenignPostgresError), mock
}
