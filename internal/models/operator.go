package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Operator 平台运维人员（控制面账号，与租户站点用户无关）
type Operator struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Name         string     `json:"name" gorm:"not null;size:100"`
	Status       string     `json:"status" gorm:"default:'active';size:20"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// TableName 表名
func (o *Operator) TableName() string {
	return "operators"
}

// 运维人员状态常量
const (
	OperatorStatusActive   = "active"
	OperatorStatusInactive = "inactive"
)

// SetPassword 设置密码
func (o *Operator) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (o *Operator) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password))
	return err == nil
}
