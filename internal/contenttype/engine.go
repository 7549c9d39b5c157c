package contenttype

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"sitehub/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Result 一次发现的结果
type Result struct {
	Created            []string          `json:"created"`
	Updated            []string          `json:"updated"`
	Stale              []string          `json:"stale"`
	TemplatesRefreshed int               `json:"templates_refreshed"`
	TemplatesRemoved   int               `json:"templates_removed"`
	Skipped            []SkippedArtifact `json:"skipped"`
}

func newResult() *Result {
	return &Result{
		Created: []string{},
		Updated: []string{},
		Stale:   []string{},
		Skipped: []SkippedArtifact{},
	}
}

// Engine 内容类型发现引擎
//
// 合并规则：
//   - 内置类型只在缺失时创建，之后不受发现影响
//   - 未被编辑过（customized=false）的类型刷新 label、plural_label、icon
//   - 能力开关、颜色、菜单顺序只在创建时设置
//   - 没有任何模板支撑的类型标记为 stale，模板重新出现后清除
type Engine struct {
	log *logrus.Logger
}

// NewEngine 创建发现引擎
func NewEngine(log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{log: log}
}

// SeedBuiltins 创建缺失的内置类型，返回新建的名称
func (e *Engine) SeedBuiltins(ctx context.Context, repo Repository) ([]string, error) {
	existing, err := repo.ListContentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取内容类型失败: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, ct := range existing {
		present[ct.Name] = true
	}

	created := []string{}
	for _, builtin := range Builtins() {
		if present[builtin.Name] {
			continue
		}
		ct := builtin
		if err := repo.CreateContentType(ctx, &ct); err != nil {
			return nil, fmt.Errorf("创建内置类型 %s 失败: %w", ct.Name, err)
		}
		created = append(created, ct.Name)
	}
	return created, nil
}

// Discover 根据模板集合创建、刷新内容类型并更新模板索引；调用方负责事务
func (e *Engine) Discover(ctx context.Context, repo Repository, artifacts []Artifact) (*Result, error) {
	result := newResult()

	seeded, err := e.SeedBuiltins(ctx, repo)
	if err != nil {
		return nil, err
	}
	result.Created = append(result.Created, seeded...)

	existing, err := repo.ListContentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取内容类型失败: %w", err)
	}
	byName := make(map[string]models.ContentType, len(existing))
	maxOrder := 0
	for _, ct := range existing {
		byName[ct.Name] = ct
		if ct.MenuOrder > maxOrder {
			maxOrder = ct.MenuOrder
		}
	}

	sorted := sortedArtifacts(artifacts)
	names, hints := discoveredTypes(sorted)

	for _, name := range names {
		ct, ok := byName[name]
		if !ok {
			maxOrder += MenuOrderStep
			def := DeriveDefinition(name, maxOrder, hints[name])
			if err := repo.CreateContentType(ctx, &def); err != nil {
				return nil, fmt.Errorf("创建内容类型 %s 失败: %w", name, err)
			}
			byName[name] = def
			result.Created = append(result.Created, name)
			e.log.WithField("content_type", name).Info("发现新的内容类型")
			continue
		}
		if ct.IsSystem {
			continue
		}

		fields := map[string]interface{}{}
		if ct.IsStale {
			fields["is_stale"] = false
		}
		if !ct.Customized {
			d := DeriveDisplay(name, hints[name])
			if !d.matches(ct) {
				fields["label"] = d.Label
				fields["plural_label"] = d.PluralLabel
				fields["icon"] = d.Icon
			}
		}
		if len(fields) == 0 {
			continue
		}
		if err := repo.UpdateContentType(ctx, ct.ID, fields); err != nil {
			return nil, fmt.Errorf("更新内容类型 %s 失败: %w", name, err)
		}
		result.Updated = append(result.Updated, name)
	}

	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}
	for _, ct := range existing {
		if ct.IsSystem || ct.IsStale || present[ct.Name] {
			continue
		}
		if err := repo.UpdateContentType(ctx, ct.ID, map[string]interface{}{"is_stale": true}); err != nil {
			return nil, fmt.Errorf("标记内容类型 %s 失败: %w", ct.Name, err)
		}
		result.Stale = append(result.Stale, ct.Name)
		e.log.WithField("content_type", ct.Name).Warn("内容类型已无模板支撑，标记为 stale")
	}
	sort.Strings(result.Stale)

	refreshed, removed, err := e.refreshTemplates(ctx, repo, sorted)
	if err != nil {
		return nil, err
	}
	result.TemplatesRefreshed = refreshed
	result.TemplatesRemoved = removed
	return result, nil
}

// refreshTemplates 只刷新模板索引的缓存列，文件已不存在的索引行被删除
func (e *Engine) refreshTemplates(ctx context.Context, repo Repository, artifacts []Artifact) (int, int, error) {
	rows, err := repo.ListTemplates(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("读取模板索引失败: %w", err)
	}
	byPath := make(map[string]models.Template, len(rows))
	for _, row := range rows {
		byPath[row.Path] = row
	}

	refreshed := 0
	for _, a := range artifacts {
		regions, err := json.Marshal(a.Regions)
		if err != nil {
			return 0, 0, fmt.Errorf("序列化模板 %s 区域失败: %w", a.Path, err)
		}

		row, ok := byPath[a.Path]
		delete(byPath, a.Path)
		if ok && row.Filename == a.Filename && row.ContentType == a.ContentType &&
			row.IsGlobal == a.IsGlobal && row.Checksum == a.Checksum && bytes.Equal(row.Regions, regions) {
			continue
		}

		row.Path = a.Path
		row.Filename = a.Filename
		row.ContentType = a.ContentType
		row.IsGlobal = a.IsGlobal
		row.Checksum = a.Checksum
		row.Regions = datatypes.JSON(regions)
		if err := repo.SaveTemplate(ctx, &row); err != nil {
			return 0, 0, fmt.Errorf("保存模板 %s 失败: %w", a.Path, err)
		}
		refreshed++
	}

	removed := 0
	for _, row := range byPath {
		if err := repo.DeleteTemplate(ctx, row.ID); err != nil {
			return 0, 0, fmt.Errorf("删除模板索引 %s 失败: %w", row.Path, err)
		}
		removed++
	}
	return refreshed, removed, nil
}

func sortedArtifacts(artifacts []Artifact) []Artifact {
	sorted := make([]Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return sorted
}

// discoveredTypes 按路径顺序返回出现过的类型名，以及每个类型第一条展示建议
func discoveredTypes(artifacts []Artifact) ([]string, map[string]*TypeHints) {
	var names []string
	hints := make(map[string]*TypeHints)
	seen := make(map[string]bool)
	for _, a := range artifacts {
		if a.IsGlobal || a.ContentType == "" {
			continue
		}
		if !seen[a.ContentType] {
			seen[a.ContentType] = true
			names = append(names, a.ContentType)
		}
		if hints[a.ContentType] == nil && a.Hints != nil {
			hints[a.ContentType] = a.Hints
		}
	}
	return names, hints
}
