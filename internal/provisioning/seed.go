package provisioning

import (
	"context"
	"fmt"

	"sitehub/internal/models"
	"sitehub/internal/store"

	"gorm.io/gorm"
)

// DefaultAdminName 初始管理员显示名
const DefaultAdminName = "Administrator"

// Seeder 写入新租户的基础数据
type Seeder interface {
	Seed(ctx context.Context, h store.Handle, cred Credential) error
}

// BaselineSeeder 写入当前主题设置与初始管理员；已存在的记录不会被覆盖
type BaselineSeeder struct {
	activeTheme string
}

// NewBaselineSeeder 创建基础数据写入器
func NewBaselineSeeder(activeTheme string) *BaselineSeeder {
	if activeTheme == "" {
		activeTheme = "default"
	}
	return &BaselineSeeder{activeTheme: activeTheme}
}

// BaselineRecords 计算要写入的设置行与管理员行，密码只以bcrypt哈希形式保存
func BaselineRecords(cred Credential, activeTheme string) (*models.Setting, *models.SiteUser, error) {
	setting := &models.Setting{
		Name:  models.SettingActiveTheme,
		Value: activeTheme,
	}
	admin := &models.SiteUser{
		Email:  cred.Email,
		Name:   DefaultAdminName,
		Role:   models.SiteRoleAdmin,
		Status: models.SiteUserStatusActive,
	}
	if err := admin.SetPassword(cred.Password); err != nil {
		return nil, nil, &SeedError{What: "管理员密码", Err: err}
	}
	return setting, admin, nil
}

// Seed 在一个事务内写入基础数据
func (s *BaselineSeeder) Seed(ctx context.Context, h store.Handle, cred Credential) error {
	setting, admin, err := BaselineRecords(cred, s.activeTheme)
	if err != nil {
		return err
	}

	return h.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Setting{}).Where("name = ?", setting.Name).Count(&count).Error; err != nil {
			return &SeedError{What: "站点设置", Err: err}
		}
		if count == 0 {
			if err := tx.Create(setting).Error; err != nil {
				return &SeedError{What: "站点设置", Err: err}
			}
		}

		if err := tx.Model(&models.SiteUser{}).Where("role = ?", models.SiteRoleAdmin).Count(&count).Error; err != nil {
			return &SeedError{What: "管理员", Err: err}
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(admin).Error; err != nil {
			return &SeedError{What: "管理员", Err: fmt.Errorf("%s: %w", admin.Email, err)}
		}
		return nil
	})
}
