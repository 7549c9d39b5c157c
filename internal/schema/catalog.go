package schema

import (
	"fmt"

	"sitehub/internal/models"
)

// Catalog 迁移目录：标准表、扩展表、历史结构变更，顺序即依赖顺序
type Catalog struct {
	canonical  []Unit
	extensions []Unit
	alters     []Unit
}

// NewCatalog 创建迁移目录
func NewCatalog(canonical, extensions, alters []Unit) *Catalog {
	return &Catalog{canonical: canonical, extensions: extensions, alters: alters}
}

// DefaultCatalog 所有租户共享的迁移目录
func DefaultCatalog() *Catalog {
	return NewCatalog(canonicalUnits(), extensionUnits(), alterUnits())
}

// Canonical 标准表
func (c *Catalog) Canonical() []Unit { return c.canonical }

// Extensions 外围子系统始终需要的表
func (c *Catalog) Extensions() []Unit { return c.extensions }

// Alters 历史结构变更
func (c *Catalog) Alters() []Unit { return c.alters }

// Static 不依赖内容类型的全部单元
func (c *Catalog) Static() []Unit {
	units := make([]Unit, 0, len(c.canonical)+len(c.extensions)+len(c.alters))
	units = append(units, c.canonical...)
	units = append(units, c.extensions...)
	units = append(units, c.alters...)
	return units
}

// Tables 目录中建表步骤拥有的全部表
func (c *Catalog) Tables() map[string]bool {
	tables := make(map[string]bool)
	for _, unit := range c.Static() {
		for _, step := range unit.Steps {
			for _, table := range step.Tables() {
				tables[table] = true
			}
		}
	}
	return tables
}

// Validate 检查单元名称非空且唯一，步骤均可执行
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for _, unit := range c.Static() {
		if unit.Name == "" {
			return fmt.Errorf("迁移单元名称不能为空")
		}
		if seen[unit.Name] {
			return fmt.Errorf("迁移单元名称重复: %s", unit.Name)
		}
		if len(unit.Steps) == 0 {
			return fmt.Errorf("迁移单元 %s 没有任何步骤", unit.Name)
		}
		for _, step := range unit.Steps {
			if step.err != nil {
				return fmt.Errorf("迁移单元 %s: %w", unit.Name, step.err)
			}
		}
		seen[unit.Name] = true
	}
	return nil
}

func canonicalUnits() []Unit {
	return []Unit{
		NewUnit("canonical:pages", AutoMigrate(&models.Page{})),
		NewUnit("canonical:blocks", AutoMigrate(&models.Block{})),
		NewUnit("canonical:templates", AutoMigrate(&models.Template{})),
		NewUnit("canonical:settings", AutoMigrate(&models.Setting{})),
		NewUnit("canonical:users", AutoMigrate(&models.SiteUser{})),
		NewUnit("canonical:content_types", AutoMigrate(&models.ContentType{})),
		NewUnit("canonical:content", AutoMigrate(&models.Content{})),
		NewUnit("canonical:products", AutoMigrate(&models.Product{})),
		// order_items 引用 orders 与 products
		NewUnit("canonical:orders", AutoMigrate(&models.Order{}, &models.OrderItem{})),
		NewUnit("canonical:page_blocks", AutoMigrate(&models.PageBlock{})),
	}
}

func extensionUnits() []Unit {
	return []Unit{
		NewUnit("extension:import_jobs", AutoMigrate(&models.ImportJob{}, &models.ImportJobItem{})),
		NewUnit("extension:media_assets", AutoMigrate(&models.MediaAsset{})),
		NewUnit("extension:payment_events", AutoMigrate(&models.PaymentEvent{})),
	}
}
