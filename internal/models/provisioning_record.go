package models

import "time"

// ProvisioningRecord 开通流水，每次开通运行一条，用于重试与排障
type ProvisioningRecord struct {
	BaseModel
	RunID         string     `json:"run_id" gorm:"uniqueIndex;not null;size:36"`
	TenantName    string     `json:"tenant_name" gorm:"not null;size:63;index"`
	Step          string     `json:"step" gorm:"size:50"` // 最后到达的步骤
	Status        string     `json:"status" gorm:"size:20"`
	Error         string     `json:"error,omitempty" gorm:"type:text"`
	RollbackError string     `json:"rollback_error,omitempty" gorm:"type:text"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// TableName 表名
func (r *ProvisioningRecord) TableName() string {
	return "provisioning_records"
}

// 开通流水状态
const (
	ProvisioningStatusRunning    = "running"
	ProvisioningStatusSucceeded  = "succeeded"
	ProvisioningStatusRolledBack = "rolled_back"
	ProvisioningStatusRejected   = "rejected" // 校验或重名失败，未创建任何资源
)
