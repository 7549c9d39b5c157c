package models

// ContentType 内容类型定义，由模板目录约定发现；同时作为后台导航入口
type ContentType struct {
	BaseModel
	Name        string `json:"name" gorm:"uniqueIndex;not null;size:64"`
	Label       string `json:"label" gorm:"not null;size:100"`
	PluralLabel string `json:"plural_label" gorm:"not null;size:100"`
	Icon        string `json:"icon" gorm:"size:50"`
	Color       string `json:"color" gorm:"size:20"`
	MenuOrder   int    `json:"menu_order" gorm:"default:0"`
	HasStatus   bool   `json:"has_status"`
	HasSEO      bool   `json:"has_seo"`
	IsSystem    bool   `json:"is_system"`  // 内置类型，禁止删除与编辑
	IsStale     bool   `json:"is_stale"`   // 已无任何模板支撑，等待人工处理
	Customized  bool   `json:"customized"` // 运维人员编辑过展示字段，重新发现时不覆盖
}

// TableName 表名
func (c *ContentType) TableName() string {
	return "content_types"
}

// 内置内容类型
const (
	ContentTypePages  = "pages"
	ContentTypeBlocks = "blocks"
)

// 记录表名前缀
const entryTablePrefix = "content_"

// MaxContentTypeNameLength 名称长度上限，保证索引名 idx_content_<name>_slug 不超过 63 字节
const MaxContentTypeNameLength = 63 - len("idx_"+entryTablePrefix) - len("_slug")

// tenantTables 租户库中由迁移目录管理的表
var tenantTables = map[string]bool{
	"pages":             true,
	"blocks":            true,
	"page_blocks":       true,
	"templates":         true,
	"settings":          true,
	"users":             true,
	"content_types":     true,
	"content":           true,
	"products":          true,
	"orders":            true,
	"order_items":       true,
	"import_jobs":       true,
	"import_job_items":  true,
	"media_assets":      true,
	"payment_events":    true,
	"schema_migrations": true,
}

// IsTenantTable 表是否属于租户库的标准结构
func IsTenantTable(table string) bool {
	return tenantTables[table]
}

// EntryTable 自定义内容类型的记录表名
func (c *ContentType) EntryTable() string {
	return entryTablePrefix + c.Name
}

// IsReservedTypeName 名称对应的记录表与标准表重名，例如 types -> content_types
func IsReservedTypeName(name string) bool {
	return IsTenantTable(entryTablePrefix + name)
}
