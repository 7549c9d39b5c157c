package contenttype

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// 区域字段类型
const (
	RegionText     = "text"
	RegionTextarea = "textarea"
	RegionRichText = "richtext"
	RegionImage    = "image"
	RegionLink     = "link"
	RegionNumber   = "number"
	RegionBoolean  = "boolean"
	RegionRepeater = "repeater"
)

var regionTypes = map[string]bool{
	RegionText:     true,
	RegionTextarea: true,
	RegionRichText: true,
	RegionImage:    true,
	RegionLink:     true,
	RegionNumber:   true,
	RegionBoolean:  true,
	RegionRepeater: true,
}

var frontMatterDelimiter = []byte("---")

// Field 重复区域的子字段
type Field struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Region 模板声明的可编辑区域
type Region struct {
	Name   string  `yaml:"name" json:"name"`
	Type   string  `yaml:"type" json:"type"`
	Fields []Field `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// TypeHints 模板对所属内容类型展示字段的建议
type TypeHints struct {
	Label       string `yaml:"label" json:"label,omitempty"`
	PluralLabel string `yaml:"plural_label" json:"plural_label,omitempty"`
	Icon        string `yaml:"icon" json:"icon,omitempty"`
}

type frontMatter struct {
	ContentType *TypeHints `yaml:"content_type"`
	Regions     []Region   `yaml:"regions"`
}

// Artifact 一个模板文件的元数据；模板本身不被解释或渲染
type Artifact struct {
	Path        string     `json:"path"` // 相对模板根目录，使用 /
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type,omitempty"`
	IsGlobal    bool       `json:"is_global"`
	Regions     []Region   `json:"regions"`
	Hints       *TypeHints `json:"hints,omitempty"`
	Checksum    string     `json:"checksum"`
}

// ArtifactError 单个模板元数据有误，该模板被跳过
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("模板 %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// ParseArtifact 解析模板路径与区域声明
func ParseArtifact(relPath string, data []byte) (Artifact, error) {
	rel := path.Clean(filepath.ToSlash(relPath))

	inference, err := InferContentType(rel)
	if err != nil {
		return Artifact{}, &ArtifactError{Path: rel, Err: err}
	}

	fm, err := parseFrontMatter(data)
	if err != nil {
		return Artifact{}, &ArtifactError{Path: rel, Err: err}
	}
	if err := validateRegions(fm.Regions); err != nil {
		return Artifact{}, &ArtifactError{Path: rel, Err: err}
	}

	sum := sha256.Sum256(data)
	artifact := Artifact{
		Path:        rel,
		Filename:    path.Base(rel),
		ContentType: inference.ContentType,
		IsGlobal:    inference.IsGlobal,
		Regions:     fm.Regions,
		Checksum:    hex.EncodeToString(sum[:]),
	}
	if !inference.IsGlobal {
		artifact.Hints = fm.ContentType
	}
	if artifact.Regions == nil {
		artifact.Regions = []Region{}
	}
	return artifact, nil
}

// parseFrontMatter 读取文件开头两行 --- 之间的 YAML；没有则返回空声明
func parseFrontMatter(data []byte) (frontMatter, error) {
	var fm frontMatter

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	first, rest, ok := cutLine(data)
	if !ok || !bytes.Equal(bytes.TrimSpace(first), frontMatterDelimiter) {
		return fm, nil
	}

	var body []byte
	closed := false
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = cutLine(rest)
		if bytes.Equal(bytes.TrimSpace(line), frontMatterDelimiter) {
			closed = true
			break
		}
		body = append(body, line...)
		body = append(body, '\n')
	}
	if !closed {
		return fm, fmt.Errorf("区域声明缺少结束分隔符 ---")
	}

	if err := yaml.Unmarshal(body, &fm); err != nil {
		return fm, fmt.Errorf("区域声明不是合法的YAML: %w", err)
	}
	return fm, nil
}

func cutLine(data []byte) (line, rest []byte, ok bool) {
	if len(data) == 0 {
		return nil, nil, false
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return bytes.TrimSuffix(data[:i], []byte("\r")), data[i+1:], true
	}
	return data, nil, true
}

func validateRegions(regions []Region) error {
	seen := make(map[string]bool, len(regions))
	for i, r := range regions {
		if r.Name == "" {
			return fmt.Errorf("第 %d 个区域缺少 name", i+1)
		}
		if seen[r.Name] {
			return fmt.Errorf("区域 %s 重复声明", r.Name)
		}
		seen[r.Name] = true

		if !regionTypes[r.Type] {
			return fmt.Errorf("区域 %s 的类型 %q 不受支持", r.Name, r.Type)
		}
		if r.Type != RegionRepeater {
			if len(r.Fields) > 0 {
				return fmt.Errorf("区域 %s 不是 repeater，不能声明 fields", r.Name)
			}
			continue
		}
		if len(r.Fields) == 0 {
			return fmt.Errorf("repeater 区域 %s 必须声明 fields", r.Name)
		}
		fieldSeen := make(map[string]bool, len(r.Fields))
		for _, f := range r.Fields {
			if f.Name == "" || fieldSeen[f.Name] {
				return fmt.Errorf("repeater 区域 %s 的字段名为空或重复", r.Name)
			}
			fieldSeen[f.Name] = true
			if !regionTypes[f.Type] || f.Type == RegionRepeater {
				return fmt.Errorf("repeater 区域 %s 的字段 %s 类型 %q 不受支持", r.Name, f.Name, f.Type)
			}
		}
	}
	return nil
}
