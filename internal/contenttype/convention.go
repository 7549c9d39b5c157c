// Package contenttype 从主题模板目录约定中发现内容类型，并登记到租户库。
package contenttype

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"sitehub/internal/models"
)

// 这两个目录下的模板为全局模板，不产生内容类型
var globalFolders = map[string]bool{
	"layouts":  true,
	"partials": true,
}

var typeNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Inference 模板路径推断结果
type Inference struct {
	ContentType string
	IsGlobal    bool
}

// InferContentType 由模板相对路径推断内容类型：取模板根目录下的第一级目录名。
// layouts/partials 下为全局模板；直接位于根目录的模板归属 pages。
func InferContentType(relPath string) (Inference, error) {
	clean := path.Clean(filepath.ToSlash(relPath))
	if clean == "." || clean == "/" || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return Inference{}, fmt.Errorf("模板路径不合法: %q", relPath)
	}

	parts := strings.Split(clean, "/")
	if len(parts) == 1 {
		return Inference{ContentType: models.ContentTypePages}, nil
	}

	folder := strings.ToLower(parts[0])
	if globalFolders[folder] {
		return Inference{IsGlobal: true}, nil
	}

	name := NormalizeTypeName(folder)
	if !typeNamePattern.MatchString(name) {
		return Inference{}, fmt.Errorf("目录 %q 无法作为内容类型名称", parts[0])
	}
	if len(name) > models.MaxContentTypeNameLength {
		return Inference{}, fmt.Errorf("目录 %q 过长，内容类型名称不能超过 %d 个字符", parts[0], models.MaxContentTypeNameLength)
	}
	if models.IsReservedTypeName(name) {
		return Inference{}, fmt.Errorf("目录 %q 的记录表与标准表重名", parts[0])
	}
	return Inference{ContentType: name}, nil
}

// NormalizeTypeName 目录名转内容类型名：小写，连字符转下划线
func NormalizeTypeName(folder string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(folder)), "-", "_")
}

// ValidTypeName 判断内容类型名称是否合法
func ValidTypeName(name string) bool {
	return typeNamePattern.MatchString(name) &&
		len(name) <= models.MaxContentTypeNameLength &&
		!models.IsReservedTypeName(name)
}
