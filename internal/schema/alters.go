package schema

import "sitehub/internal/store"

// alterUnits 产品演进中累积的结构变更；重复执行时依赖后端的“已存在”类错误跳过。
// 只改索引或约束的标准表变更在这里追加新单元，新增列由标准单元的列指纹触发重新迁移
func alterUnits() []Unit {
	return []Unit{
		NewUnit("alter:pages_add_sort_order", DialectSQL("pages.sort_order", map[string]string{
			store.DialectPostgres: "ALTER TABLE pages ADD COLUMN sort_order INTEGER NOT NULL DEFAULT 0",
			store.DialectMySQL:    "ALTER TABLE pages ADD COLUMN sort_order INT NOT NULL DEFAULT 0",
		})),
		NewUnit("alter:orders_status_created_index",
			SQL("CREATE INDEX idx_orders_status_created ON orders (status, created_at)")),
		NewUnit("alter:settings_drop_legacy_theme_path",
			SQL("ALTER TABLE settings DROP COLUMN legacy_theme_path")),
		NewUnit("alter:products_unique_sku",
			UniqueIndex("CREATE UNIQUE INDEX idx_products_sku ON products (sku)")),
		NewUnit("alter:users_backfill_role",
			SQL("UPDATE users SET role = 'editor' WHERE role = '' OR role IS NULL")),
	}
}
