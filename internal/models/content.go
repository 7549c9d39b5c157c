package models

import (
	"time"

	"gorm.io/datatypes"
)

// Content 站点级共享文案片段
type Content struct {
	BaseModel
	Name        string         `json:"name" gorm:"uniqueIndex;not null;size:191"`
	ContentType string         `json:"content_type" gorm:"size:64;index"`
	Body        string         `json:"body" gorm:"type:text"`
	Data        datatypes.JSON `json:"data"`
}

// TableName 表名
func (c *Content) TableName() string {
	return "content"
}

// ContentEntry 自定义内容类型记录的公共列，按 content_<name> 建表
type ContentEntry struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Title     string         `json:"title" gorm:"not null;size:255"`
	Slug      string         `json:"slug" gorm:"not null;size:191"`
	Data      datatypes.JSON `json:"data"`
	SortOrder int            `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// EntryStatusFields has_status 对应的列
type EntryStatusFields struct {
	Status      string     `json:"status" gorm:"default:'draft';size:20"`
	PublishedAt *time.Time `json:"published_at"`
}

// EntrySEOFields has_seo 对应的列
type EntrySEOFields struct {
	SEOTitle       string `json:"seo_title" gorm:"size:255"`
	SEODescription string `json:"seo_description" gorm:"size:500"`
}

// ContentEntryWithStatus 带发布状态的记录
type ContentEntryWithStatus struct {
	ContentEntry
	EntryStatusFields
}

// ContentEntryWithSEO 带SEO字段的记录
type ContentEntryWithSEO struct {
	ContentEntry
	EntrySEOFields
}

// ContentEntryFull 同时带状态与SEO字段的记录
type ContentEntryFull struct {
	ContentEntry
	EntryStatusFields
	EntrySEOFields
}

// EntryModelFor 按能力开关选择建表模型
func EntryModelFor(hasStatus, hasSEO bool) interface{} {
	switch {
	case hasStatus && hasSEO:
		return &ContentEntryFull{}
	case hasStatus:
		return &ContentEntryWithStatus{}
	case hasSEO:
		return &ContentEntryWithSEO{}
	default:
		return &ContentEntry{}
	}
}
