package contenttype

import (
	"context"
	"errors"
	"sort"
	"strings"

	"sitehub/internal/models"
)

// memRepo 内存仓储，RunInTx 失败时恢复快照
type memRepo struct {
	theme     string
	types     []models.ContentType
	templates []models.Template
	nextID    uint
	failOn    string // 方法名，命中时返回错误
	updates   int
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1}
}

func (r *memRepo) fail(method string) error {
	if r.failOn == method {
		return errors.New(method + " 失败")
	}
	return nil
}

func (r *memRepo) RunInTx(ctx context.Context, fn func(tx Repository) error) error {
	types := append([]models.ContentType(nil), r.types...)
	templates := append([]models.Template(nil), r.templates...)
	if err := fn(r); err != nil {
		r.types = types
		r.templates = templates
		return err
	}
	return nil
}

func (r *memRepo) ActiveTheme(context.Context) (string, error) {
	return r.theme, r.fail("ActiveTheme")
}

func (r *memRepo) ListContentTypes(context.Context) ([]models.ContentType, error) {
	if err := r.fail("ListContentTypes"); err != nil {
		return nil, err
	}
	out := append([]models.ContentType(nil), r.types...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MenuOrder < out[j].MenuOrder })
	return out, nil
}

func (r *memRepo) CreateContentType(_ context.Context, ct *models.ContentType) error {
	if err := r.fail("CreateContentType"); err != nil {
		return err
	}
	for _, existing := range r.types {
		if existing.Name == ct.Name {
			return errors.New("duplicate key")
		}
	}
	ct.ID = r.nextID
	r.nextID++
	r.types = append(r.types, *ct)
	return nil
}

func (r *memRepo) UpdateContentType(_ context.Context, id uint, fields map[string]interface{}) error {
	if err := r.fail("UpdateContentType"); err != nil {
		return err
	}
	r.updates++
	for i := range r.types {
		if r.types[i].ID != id {
			continue
		}
		for k, v := range fields {
			switch k {
			case "label":
				r.types[i].Label = v.(string)
			case "plural_label":
				r.types[i].PluralLabel = v.(string)
			case "icon":
				r.types[i].Icon = v.(string)
			case "is_stale":
				r.types[i].IsStale = v.(bool)
			default:
				return errors.New("unexpected field " + k)
			}
		}
		return nil
	}
	return errors.New("not found")
}

func (r *memRepo) ListTemplates(context.Context) ([]models.Template, error) {
	return append([]models.Template(nil), r.templates...), r.fail("ListTemplates")
}

func (r *memRepo) SaveTemplate(_ context.Context, tpl *models.Template) error {
	if err := r.fail("SaveTemplate"); err != nil {
		return err
	}
	if tpl.ID == 0 {
		tpl.ID = r.nextID
		r.nextID++
		r.templates = append(r.templates, *tpl)
		return nil
	}
	for i := range r.templates {
		if r.templates[i].ID == tpl.ID {
			r.templates[i] = *tpl
		}
	}
	return nil
}

func (r *memRepo) DeleteTemplate(_ context.Context, id uint) error {
	for i := range r.templates {
		if r.templates[i].ID == id {
			r.templates = append(r.templates[:i], r.templates[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memRepo) byName(name string) (models.ContentType, bool) {
	for _, ct := range r.types {
		if ct.Name == name {
			return ct, true
		}
	}
	return models.ContentType{}, false
}

func (r *memRepo) names() string {
	var names []string
	for _, ct := range r.types {
		names = append(names, ct.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
