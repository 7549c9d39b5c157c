package provisioning

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError 输入不合法，未创建任何资源，不应重试
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数 %s 不合法: %s", e.Field, e.Reason)
}

// DuplicateTenantError 名称或物理库已被占用
type DuplicateTenantError struct {
	Name            string
	StoreIdentifier string
}

func (e *DuplicateTenantError) Error() string {
	return fmt.Sprintf("租户 %s 已存在（物理库 %s）", e.Name, e.StoreIdentifier)
}

// StoreCreationError 创建或打开物理库失败
type StoreCreationError struct {
	StoreIdentifier string
	Err             error
}

func (e *StoreCreationError) Error() string {
	return fmt.Sprintf("创建物理库 %s 失败: %v", e.StoreIdentifier, e.Err)
}

func (e *StoreCreationError) Unwrap() error { return e.Err }

// SeedError 写入基础数据失败
type SeedError struct {
	What string
	Err  error
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("初始化%s失败: %v", e.What, e.Err)
}

func (e *SeedError) Unwrap() error { return e.Err }

// RollbackError 回滚中的清理失败；只作为诊断信息附加，不替代原始错误
type RollbackError struct {
	Tenant string
	Errs   []error
}

func (e *RollbackError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("租户 %s 回滚不完整: %s", e.Tenant, strings.Join(msgs, "; "))
}

func (e *RollbackError) Unwrap() []error { return e.Errs }

// ProvisioningFailedError 某个步骤失败且已回滚；Unwrap 返回原始错误
type ProvisioningFailedError struct {
	Tenant      string
	Step        string
	Err         error
	RollbackErr error
}

func (e *ProvisioningFailedError) Error() string {
	rollback := "已回滚"
	if e.RollbackErr != nil {
		rollback = "回滚失败: " + e.RollbackErr.Error()
	}
	return fmt.Sprintf("租户 %s 开通失败（步骤 %s）: %v；%s", e.Tenant, e.Step, e.Err, rollback)
}

func (e *ProvisioningFailedError) Unwrap() error { return e.Err }

// RolledBack 回滚是否完整
func (e *ProvisioningFailedError) RolledBack() bool {
	return e.RollbackErr == nil
}

// IsValidation 判断是否为输入错误
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsDuplicate 判断是否为重名错误
func IsDuplicate(err error) bool {
	var target *DuplicateTenantError
	return errors.As(err, &target)
}
