package schema

import (
	"fmt"
	"strings"

	"sitehub/internal/models"
	"sitehub/internal/store"
)

const contentTypeUnitPrefix = "content_type:"

// capabilities 能力开关的账本表示，开关变化会产生新的单元名从而补列
func capabilities(ct models.ContentType) string {
	var caps []string
	if ct.HasStatus {
		caps = append(caps, "status")
	}
	if ct.HasSEO {
		caps = append(caps, "seo")
	}
	if len(caps) == 0 {
		return "base"
	}
	return strings.Join(caps, "+")
}

// ContentTypeUnitName 内容类型支撑表的单元名
func ContentTypeUnitName(ct models.ContentType) string {
	return contentTypeUnitPrefix + ct.Name + ":" + capabilities(ct)
}

// RejectedContentType 无法生成支撑表的内容类型
type RejectedContentType struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ContentTypeUnit 为单个内容类型生成建表单元
func ContentTypeUnit(ct models.ContentType) (Unit, error) {
	table := ct.EntryTable()
	if models.IsReservedTypeName(ct.Name) {
		return Unit{}, fmt.Errorf("内容类型 %s 的记录表 %s 与标准表重名", ct.Name, table)
	}
	index := "idx_" + table + "_slug"
	for _, identifier := range []string{table, index} {
		if err := store.ValidateIdentifier(identifier); err != nil {
			return Unit{}, fmt.Errorf("内容类型 %s 的表名不合法: %w", ct.Name, err)
		}
	}
	return NewUnit(ContentTypeUnitName(ct),
		AutoMigrateTable(table, models.EntryModelFor(ct.HasStatus, ct.HasSEO)),
		UniqueIndex(fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (slug)", index, table)),
	), nil
}

// ContentTypeUnits 为所有非内置内容类型生成建表单元；内置类型由标准表承载。
// 单个类型不合法时跳过并返回原因，不影响其他类型
func ContentTypeUnits(types []models.ContentType) ([]Unit, []RejectedContentType) {
	units := make([]Unit, 0, len(types))
	var rejected []RejectedContentType
	for _, ct := range types {
		if ct.IsSystem {
			continue
		}
		unit, err := ContentTypeUnit(ct)
		if err != nil {
			rejected = append(rejected, RejectedContentType{Name: ct.Name, Reason: err.Error()})
			continue
		}
		units = append(units, unit)
	}
	return units, rejected
}
