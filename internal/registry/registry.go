// Package registry 是租户的权威目录，位于控制面库。
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitehub/internal/models"
	"sitehub/pkg/pagination"

	"gorm.io/gorm"
)

var (
	// ErrDuplicate 名称或物理库标识已被占用
	ErrDuplicate = errors.New("租户已存在")
	// ErrNotFound 租户不存在或状态不允许该操作
	ErrNotFound = errors.New("租户不存在")
)

// Registry 租户注册表；控制面连接需开启 TranslateError
type Registry struct {
	db *gorm.DB
}

// New 创建注册表
func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Get 按名称查询
func (r *Registry) Get(ctx context.Context, name string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询租户失败: %w", err)
	}
	return &tenant, nil
}

// List 按状态列出租户，status 为空时列出全部
func (r *Registry) List(ctx context.Context, status string) ([]models.Tenant, error) {
	var tenants []models.Tenant
	query := r.db.WithContext(ctx).Model(&models.Tenant{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("name").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("查询租户列表失败: %w", err)
	}
	return tenants, nil
}

// ListPage 分页查询
func (r *Registry) ListPage(ctx context.Context, status, keyword string, page, pageSize int) ([]models.Tenant, int64, error) {
	var tenants []models.Tenant
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Tenant{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计租户失败: %w", err)
	}

	if err := query.Order("name").Scopes(pagination.Paginate(page, pageSize)).Find(&tenants).Error; err != nil {
		return nil, 0, fmt.Errorf("查询租户列表失败: %w", err)
	}
	return tenants, total, nil
}

// Reserve 以 pending 状态占用名称；失败过的租户可重新占用，其余情况返回 ErrDuplicate
func (r *Registry) Reserve(ctx context.Context, name, storeIdentifier string) (*models.Tenant, error) {
	var reserved *models.Tenant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Tenant
		err := tx.Where("name = ? OR store_identifier = ?", name, storeIdentifier).First(&existing).Error
		switch {
		case err == nil:
			if existing.Name != name || existing.Status != models.TenantStatusFailed {
				return ErrDuplicate
			}
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"status":         models.TenantStatusPending,
				"failed_step":    "",
				"failure_detail": "",
			}).Error; err != nil {
				return err
			}
			existing.Status = models.TenantStatusPending
			existing.FailedStep = ""
			existing.FailureDetail = ""
			reserved = &existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		tenant := &models.Tenant{
			Name:            name,
			StoreIdentifier: storeIdentifier,
			Status:          models.TenantStatusPending,
		}
		if err := tx.Create(tenant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicate
			}
			return err
		}
		reserved = tenant
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("占用租户名称失败: %w", err)
	}
	return reserved, nil
}

// MarkActive pending -> active
func (r *Registry) MarkActive(ctx context.Context, name string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("name = ? AND status = ?", name, models.TenantStatusPending).
		Updates(map[string]interface{}{
			"status":       models.TenantStatusActive,
			"activated_at": &now,
		})
	if result.Error != nil {
		return fmt.Errorf("更新租户状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed pending -> failed，记录失败步骤
func (r *Registry) MarkFailed(ctx context.Context, name, step, detail string) error {
	result := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("name = ? AND status = ?", name, models.TenantStatusPending).
		Updates(map[string]interface{}{
			"status":         models.TenantStatusFailed,
			"failed_step":    step,
			"failure_detail": detail,
		})
	if result.Error != nil {
		return fmt.Errorf("更新租户状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRecord 写入或更新开通流水
func (r *Registry) SaveRecord(ctx context.Context, record *models.ProvisioningRecord) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("保存开通流水失败: %w", err)
	}
	return nil
}

// Records 租户最近的开通流水
func (r *Registry) Records(ctx context.Context, name string, limit int) ([]models.ProvisioningRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []models.ProvisioningRecord
	err := r.db.WithContext(ctx).
		Where("tenant_name = ?", name).
		Order("started_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询开通流水失败: %w", err)
	}
	return records, nil
}
