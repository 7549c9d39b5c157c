package models

import "time"

// Tenant 租户（控制面），名称由子域名派生，物理库标识由名称确定性计算
type Tenant struct {
	BaseModel
	Name            string     `json:"name" gorm:"uniqueIndex;not null;size:63"`
	StoreIdentifier string     `json:"store_identifier" gorm:"uniqueIndex;not null;size:100"`
	Status          string     `json:"status" gorm:"default:'pending';size:20;index"`
	FailedStep      string     `json:"failed_step,omitempty" gorm:"size:50"`
	FailureDetail   string     `json:"failure_detail,omitempty" gorm:"type:text"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

// 租户状态常量，状态迁移是租户唯一的变更方式
const (
	TenantStatusPending = "pending"
	TenantStatusActive  = "active"
	TenantStatusFailed  = "failed"
)

// IsActive 是否已开通完成
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}
