package contenttype

import (
	"context"
	"errors"

	"sitehub/internal/models"

	"gorm.io/gorm"
)

// Repository 租户库中内容类型与模板索引的读写
type Repository interface {
	RunInTx(ctx context.Context, fn func(tx Repository) error) error
	ActiveTheme(ctx context.Context) (string, error)
	ListContentTypes(ctx context.Context) ([]models.ContentType, error)
	CreateContentType(ctx context.Context, ct *models.ContentType) error
	UpdateContentType(ctx context.Context, id uint, fields map[string]interface{}) error
	ListTemplates(ctx context.Context) ([]models.Template, error)
	SaveTemplate(ctx context.Context, tpl *models.Template) error
	DeleteTemplate(ctx context.Context, id uint) error
}

// GormRepository 基于gorm的实现
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository 创建仓储
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// RunInTx 在同一事务内执行，fn 返回错误时回滚
func (r *GormRepository) RunInTx(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

// ActiveTheme 当前主题，未设置时返回空串
func (r *GormRepository) ActiveTheme(ctx context.Context) (string, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).Where("name = ?", models.SettingActiveTheme).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (r *GormRepository) ListContentTypes(ctx context.Context) ([]models.ContentType, error) {
	var types []models.ContentType
	err := r.db.WithContext(ctx).Order("menu_order, id").Find(&types).Error
	return types, err
}

func (r *GormRepository) CreateContentType(ctx context.Context, ct *models.ContentType) error {
	return r.db.WithContext(ctx).Create(ct).Error
}

func (r *GormRepository) UpdateContentType(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.ContentType{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormRepository) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	err := r.db.WithContext(ctx).Order("path").Find(&templates).Error
	return templates, err
}

func (r *GormRepository) SaveTemplate(ctx context.Context, tpl *models.Template) error {
	return r.db.WithContext(ctx).Save(tpl).Error
}

func (r *GormRepository) DeleteTemplate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Template{}, id).Error
}
