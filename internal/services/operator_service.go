package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitehub/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	// ErrOperatorDisabled 账号已被禁用
	ErrOperatorDisabled = errors.New("账号已被禁用")
)

// OperatorService 平台运维账号
type OperatorService struct {
	db *gorm.DB
}

// NewOperatorService 创建运维账号服务
func NewOperatorService(db *gorm.DB) *OperatorService {
	return &OperatorService{db: db}
}

// GetByID 根据ID获取
func (s *OperatorService) GetByID(ctx context.Context, id uint) (*models.Operator, error) {
	var operator models.Operator
	if err := s.db.WithContext(ctx).First(&operator, id).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

// GetByUsername 根据用户名获取
func (s *OperatorService) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var operator models.Operator
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&operator).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

// IsActive 检查账号状态
func (s *OperatorService) IsActive(operator *models.Operator) bool {
	return operator.Status == models.OperatorStatusActive
}

// Authenticate 校验用户名密码，成功后更新最后登录时间
func (s *OperatorService) Authenticate(ctx context.Context, username, password string) (*models.Operator, error) {
	operator, err := s.GetByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("查询账号失败: %w", err)
	}
	if !operator.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !s.IsActive(operator) {
		return nil, ErrOperatorDisabled
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", operator.ID).
		Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("更新登录时间失败: %w", err)
	}
	operator.LastLoginAt = &now
	return operator, nil
}

// EnsureDefault 不存在任何账号时创建默认运维账号，返回是否创建
func (s *OperatorService) EnsureDefault(ctx context.Context, username, email, password string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Operator{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	operator := &models.Operator{
		Username: username,
		Email:    email,
		Name:     "平台管理员",
		Status:   models.OperatorStatusActive,
	}
	if err := operator.SetPassword(password); err != nil {
		return false, fmt.Errorf("密码加密失败: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(operator).Error; err != nil {
		return false, err
	}
	return true, nil
}
