package contenttype

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"sitehub/internal/models"

	"github.com/jinzhu/inflection"
)

// 新发现内容类型的默认展示
const (
	DefaultIcon      = "folder"
	DefaultColor     = "#64748b"
	MenuOrderStep    = 10
	defaultHasStatus = true
	defaultHasSEO    = false
)

// Display 可被重新发现刷新的展示字段
type Display struct {
	Label       string
	PluralLabel string
	Icon        string
}

// DeriveDisplay 由名称推导展示字段，模板可通过 hints 覆盖
func DeriveDisplay(name string, hints *TypeHints) Display {
	singular := inflection.Singular(name)
	d := Display{
		Label:       humanize(singular),
		PluralLabel: humanize(inflection.Plural(singular)),
		Icon:        DefaultIcon,
	}
	if hints != nil {
		if hints.Label != "" {
			d.Label = hints.Label
		}
		if hints.PluralLabel != "" {
			d.PluralLabel = hints.PluralLabel
		}
		if hints.Icon != "" {
			d.Icon = hints.Icon
		}
	}
	return d
}

// DeriveDefinition 新内容类型的完整默认定义
func DeriveDefinition(name string, menuOrder int, hints *TypeHints) models.ContentType {
	d := DeriveDisplay(name, hints)
	return models.ContentType{
		Name:        name,
		Label:       d.Label,
		PluralLabel: d.PluralLabel,
		Icon:        d.Icon,
		Color:       DefaultColor,
		MenuOrder:   menuOrder,
		HasStatus:   defaultHasStatus,
		HasSEO:      defaultHasSEO,
	}
}

// Builtins 内置内容类型
func Builtins() []models.ContentType {
	return []models.ContentType{
		{
			Name:        models.ContentTypePages,
			Label:       "Page",
			PluralLabel: "Pages",
			Icon:        "file-text",
			Color:       "#2563eb",
			MenuOrder:   10,
			HasStatus:   true,
			HasSEO:      true,
			IsSystem:    true,
		},
		{
			Name:        models.ContentTypeBlocks,
			Label:       "Block",
			PluralLabel: "Blocks",
			Icon:        "layout",
			Color:       "#7c3aed",
			MenuOrder:   20,
			IsSystem:    true,
		},
	}
}

// IsBuiltin 判断名称是否为内置类型
func IsBuiltin(name string) bool {
	return name == models.ContentTypePages || name == models.ContentTypeBlocks
}

func (d Display) matches(ct models.ContentType) bool {
	return ct.Label == d.Label && ct.PluralLabel == d.PluralLabel && ct.Icon == d.Icon
}

// humanize team_members -> Team members
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
