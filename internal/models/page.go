package models

import "gorm.io/datatypes"

// Page 站点页面（内置内容类型 pages 的承载表）
type Page struct {
	BaseModel
	Title          string         `json:"title" gorm:"not null;size:255"`
	Slug           string         `json:"slug" gorm:"uniqueIndex;not null;size:191"`
	TemplateID     *uint          `json:"template_id" gorm:"index"`
	Status         string         `json:"status" gorm:"default:'draft';size:20"`
	SEOTitle       string         `json:"seo_title" gorm:"size:255"`
	SEODescription string         `json:"seo_description" gorm:"size:500"`
	Data           datatypes.JSON `json:"data"`
}

// TableName 表名
func (p *Page) TableName() string {
	return "pages"
}

// Block 可复用区块（内置内容类型 blocks 的承载表）
type Block struct {
	BaseModel
	Name       string         `json:"name" gorm:"not null;size:255"`
	Slug       string         `json:"slug" gorm:"uniqueIndex;not null;size:191"`
	TemplateID *uint          `json:"template_id" gorm:"index"`
	IsGlobal   bool           `json:"is_global" gorm:"default:false"`
	Data       datatypes.JSON `json:"data"`
}

// TableName 表名
func (b *Block) TableName() string {
	return "blocks"
}

// PageBlock 页面区域中放置的区块，依赖 pages 与 blocks
type PageBlock struct {
	ID       uint   `json:"id" gorm:"primarykey"`
	PageID   uint   `json:"page_id" gorm:"not null;index"`
	BlockID  uint   `json:"block_id" gorm:"not null;index"`
	Region   string `json:"region" gorm:"not null;size:100"`
	Position int    `json:"position" gorm:"default:0"`

	Page  *Page  `json:"-" gorm:"foreignKey:PageID;constraint:OnDelete:CASCADE"`
	Block *Block `json:"-" gorm:"foreignKey:BlockID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (pb *PageBlock) TableName() string {
	return "page_blocks"
}
