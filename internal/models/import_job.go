package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportJob 数据导入任务的记账表
type ImportJob struct {
	BaseModel
	Source     string     `json:"source" gorm:"not null;size:50"`
	Status     string     `json:"status" gorm:"default:'queued';size:20"`
	Total      int        `json:"total"`
	Processed  int        `json:"processed"`
	Failed     int        `json:"failed"`
	Error      string     `json:"error,omitempty" gorm:"type:text"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// TableName 表名
func (j *ImportJob) TableName() string {
	return "import_jobs"
}

// ImportJobItem 导入任务中的单行
type ImportJobItem struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	JobID     uint           `json:"job_id" gorm:"not null;index"`
	RowNumber int            `json:"row_number"`
	Status    string         `json:"status" gorm:"size:20"`
	Error     string         `json:"error,omitempty" gorm:"type:text"`
	Payload   datatypes.JSON `json:"payload"`

	Job *ImportJob `json:"-" gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (i *ImportJobItem) TableName() string {
	return "import_job_items"
}

// MediaAsset 上传文件登记，文件本体位于租户的独立存储目录
type MediaAsset struct {
	BaseModel
	Path     string `json:"path" gorm:"uniqueIndex;not null;size:191"`
	Filename string `json:"filename" gorm:"not null;size:191"`
	MimeType string `json:"mime_type" gorm:"size:100"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum" gorm:"size:64"`
}

// TableName 表名
func (m *MediaAsset) TableName() string {
	return "media_assets"
}
