package models

import "gorm.io/datatypes"

// Template 主题模板的索引行，文件名与内容类型两列是扫描结果的缓存
type Template struct {
	BaseModel
	Path        string         `json:"path" gorm:"uniqueIndex;not null;size:191"` // 相对 templates 根目录
	Filename    string         `json:"filename" gorm:"not null;size:191"`
	ContentType string         `json:"content_type" gorm:"size:64;index"` // 全局模板为空
	IsGlobal    bool           `json:"is_global" gorm:"default:false"`
	Regions     datatypes.JSON `json:"regions"`
	Checksum    string         `json:"checksum" gorm:"size:64"`
}

// TableName 表名
func (t *Template) TableName() string {
	return "templates"
}
