package schema

import "fmt"

// MigrationError 迁移单元因非“已存在”类原因失败
type MigrationError struct {
	Store string
	Unit  string
	Err   error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("租户库 %s 应用迁移 %s 失败: %v", e.Store, e.Unit, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
