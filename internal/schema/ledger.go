package schema

import (
	"fmt"
	"time"

	"sitehub/internal/store"

	"gorm.io/gorm"
)

// LedgerTable 已应用迁移账本
const LedgerTable = "schema_migrations"

type ledger struct {
	db *gorm.DB
	h  store.Handle
}

func newLedger(db *gorm.DB, h store.Handle) *ledger {
	return &ledger{db: db, h: h}
}

func (l *ledger) ensure() error {
	err := l.db.Exec("CREATE TABLE IF NOT EXISTS " + LedgerTable +
		" (name VARCHAR(191) PRIMARY KEY, applied_at TIMESTAMP NOT NULL)").Error
	if err != nil && !l.h.IsBenignAlreadyAppliedError(err) {
		return fmt.Errorf("创建迁移账本失败: %w", err)
	}
	return nil
}

func (l *ledger) applied(name string) (bool, error) {
	var count int64
	if err := l.db.Raw("SELECT COUNT(*) FROM "+LedgerTable+" WHERE name = ?", name).Scan(&count).Error; err != nil {
		return false, fmt.Errorf("查询迁移账本失败: %w", err)
	}
	return count > 0, nil
}

// record 写入账本；并发同步写入同名记录时重复键视为成功
func (l *ledger) record(name string) error {
	err := l.db.Exec("INSERT INTO "+LedgerTable+" (name, applied_at) VALUES (?, ?)", name, time.Now()).Error
	if err != nil && !l.h.IsBenignAlreadyAppliedError(err) {
		return fmt.Errorf("写入迁移账本失败: %w", err)
	}
	return nil
}
