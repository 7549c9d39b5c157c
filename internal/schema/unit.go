// Package schema 维护租户库的迁移目录，并负责把它应用到单个租户库。
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

// Step 迁移单元中的一条语句或一次 AutoMigrate
type Step struct {
	Label string
	Run   func(db *gorm.DB) error

	tables      []string
	fingerprint string
	err         error
	// 建唯一索引时的重复键来自已有数据，不属于“已存在”
	rejectDuplicateRows bool
}

// Tables 步骤建立或迁移的表
func (s Step) Tables() []string { return s.tables }

// Unit 迁移单元：按声明顺序执行的一组步骤
type Unit struct {
	Name  string
	Steps []Step
}

// NewUnit 创建迁移单元
func NewUnit(name string, steps ...Step) Unit {
	return Unit{Name: name, Steps: steps}
}

// LedgerKey 账本主键。含建表步骤时附带列定义指纹，模型增减字段后单元会重新执行
func (u Unit) LedgerKey() string {
	var parts []string
	for _, step := range u.Steps {
		if step.fingerprint != "" {
			parts = append(parts, step.fingerprint)
		}
	}
	if len(parts) == 0 {
		return u.Name
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return u.Name + "@" + hex.EncodeToString(sum[:6])
}

// SQL 与方言无关的原生语句
func SQL(stmt string) Step {
	return Step{
		Label: stmt,
		Run: func(db *gorm.DB) error {
			return db.Exec(stmt).Error
		},
	}
}

// UniqueIndex 建唯一索引；索引已存在可跳过，已有数据违反唯一约束则失败
func UniqueIndex(stmt string) Step {
	step := SQL(stmt)
	step.rejectDuplicateRows = true
	return step
}

// DialectSQL 按当前连接的方言选择语句；未提供该方言的语句视为错误
func DialectSQL(label string, stmts map[string]string) Step {
	return Step{
		Label: label,
		Run: func(db *gorm.DB) error {
			dialect := db.Dialector.Name()
			stmt, ok := stmts[dialect]
			if !ok {
				return fmt.Errorf("步骤 %s 未提供 %s 方言的语句", label, dialect)
			}
			return db.Exec(stmt).Error
		},
	}
}

// AutoMigrate 对模型建表或补列
func AutoMigrate(models ...interface{}) Step {
	step := Step{
		Label: fmt.Sprintf("automigrate(%d)", len(models)),
		Run: func(db *gorm.DB) error {
			return db.AutoMigrate(models...)
		},
	}
	var prints []string
	for _, model := range models {
		s, err := parseModel(model)
		if err != nil {
			step.err = fmt.Errorf("解析模型 %T 失败: %w", model, err)
			return step
		}
		step.tables = append(step.tables, s.Table)
		prints = append(prints, columnFingerprint(s.Table, s))
	}
	step.fingerprint = strings.Join(prints, ";")
	return step
}

// AutoMigrateTable 用模型的列定义迁移指定表名
func AutoMigrateTable(table string, model interface{}) Step {
	step := Step{
		Label: "automigrate " + table,
		Run: func(db *gorm.DB) error {
			return db.Table(table).AutoMigrate(model)
		},
		tables: []string{table},
	}
	s, err := parseModel(model)
	if err != nil {
		step.err = fmt.Errorf("解析模型 %T 失败: %w", model, err)
		return step
	}
	step.fingerprint = columnFingerprint(table, s)
	return step
}

var modelCache sync.Map

func parseModel(model interface{}) (*gormschema.Schema, error) {
	return gormschema.Parse(model, &modelCache, gormschema.NamingStrategy{})
}

// columnFingerprint 表名与列定义；索引变更不在其中，需以 alter 单元发布
func columnFingerprint(table string, s *gormschema.Schema) string {
	var b strings.Builder
	b.WriteString(table)
	for _, f := range s.Fields {
		if f.DBName == "" {
			continue
		}
		fmt.Fprintf(&b, "|%s %s %d %d %t %t %t %q",
			f.DBName, f.DataType, f.Size, f.Precision, f.NotNull, f.Unique, f.PrimaryKey, f.DefaultValue)
	}
	return b.String()
}
