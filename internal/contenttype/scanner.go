package contenttype

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrTemplatesRootMissing 主题模板目录不存在
var ErrTemplatesRootMissing = errors.New("模板目录不存在")

var templateExtensions = map[string]bool{
	".html":   true,
	".htm":    true,
	".tmpl":   true,
	".gohtml": true,
}

// SkippedArtifact 被跳过的模板及原因
type SkippedArtifact struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ScanResult 扫描结果，按路径排序
type ScanResult struct {
	Artifacts []Artifact
	Skipped   []SkippedArtifact
}

// Scan 遍历模板根目录；单个模板解析失败只记录跳过，不中断扫描
func Scan(root string) (*ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplatesRootMissing, root)
		}
		return nil, fmt.Errorf("读取模板目录失败: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("模板根路径不是目录: %s", root)
	}

	result := &ScanResult{}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !templateExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(p)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedArtifact{Path: rel, Reason: err.Error()})
			return nil
		}
		artifact, err := ParseArtifact(rel, data)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedArtifact{Path: rel, Reason: err.Error()})
			return nil
		}
		result.Artifacts = append(result.Artifacts, artifact)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("扫描模板目录失败: %w", err)
	}

	sort.Slice(result.Artifacts, func(i, j int) bool { return result.Artifacts[i].Path < result.Artifacts[j].Path })
	return result, nil
}
