package models

// Setting 站点键值设置
type Setting struct {
	BaseModel
	Name  string `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Value string `json:"value" gorm:"type:text"`
}

// TableName 表名
func (s *Setting) TableName() string {
	return "settings"
}

// 内置设置项
const (
	SettingActiveTheme = "active_theme"
)
