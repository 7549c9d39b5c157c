package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SiteUser 租户站点后台用户（位于租户库 users 表）
type SiteUser struct {
	BaseModel
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:191"`
	Name         string     `json:"name" gorm:"not null;size:100"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Role         string     `json:"role" gorm:"size:20"`
	Status       string     `json:"status" gorm:"default:'active';size:20"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// TableName 表名
func (u *SiteUser) TableName() string {
	return "users"
}

// 站点用户角色
const (
	SiteRoleAdmin  = "admin"
	SiteRoleEditor = "editor"
)

// 站点用户状态
const (
	SiteUserStatusActive = "active"
)

// SetPassword 使用bcrypt设置密码哈希
func (u *SiteUser) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *SiteUser) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
