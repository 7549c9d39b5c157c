package contenttype

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"sitehub/internal/cache"
	"sitehub/internal/store"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TemplatesCacheKey 模板元数据在租户缓存中的键
const TemplatesCacheKey = "templates"

var themeNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// CachedTemplates 缓存中的模板元数据
type CachedTemplates struct {
	Theme     string     `json:"theme"`
	Artifacts []Artifact `json:"artifacts"`
}

// Service 针对单个租户库执行发现
type Service struct {
	themesRoot   string
	defaultTheme string
	engine       *Engine
	cache        cache.TenantCache
	log          *logrus.Logger
	newRepo      func(db *gorm.DB) Repository
}

// NewService 创建发现服务
func NewService(themesRoot, defaultTheme string, tenantCache cache.TenantCache, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if tenantCache == nil {
		tenantCache = cache.Noop{}
	}
	if defaultTheme == "" {
		defaultTheme = "default"
	}
	return &Service{
		themesRoot:   themesRoot,
		defaultTheme: defaultTheme,
		engine:       NewEngine(log),
		cache:        tenantCache,
		log:          log,
		newRepo:      func(db *gorm.DB) Repository { return NewGormRepository(db) },
	}
}

// TemplatesRoot 主题的模板根目录
func (s *Service) TemplatesRoot(theme string) string {
	return filepath.Join(s.themesRoot, theme, "templates")
}

// SeedBuiltins 在租户库中创建内置内容类型
func (s *Service) SeedBuiltins(ctx context.Context, h store.Handle) ([]string, error) {
	return s.engine.SeedBuiltins(ctx, s.newRepo(h.DB()))
}

// DiscoverStore 扫描租户当前主题并在一个事务内登记内容类型；返回时结果已提交
func (s *Service) DiscoverStore(ctx context.Context, h store.Handle) (*Result, error) {
	repo := s.newRepo(h.DB())
	entry := s.log.WithField("store", h.Identifier())

	theme, err := repo.ActiveTheme(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取当前主题失败: %w", err)
	}
	if theme == "" {
		theme = s.defaultTheme
	}
	if !themeNamePattern.MatchString(theme) {
		return nil, fmt.Errorf("主题名称不合法: %q", theme)
	}

	scan, err := Scan(s.TemplatesRoot(theme))
	if errors.Is(err, ErrTemplatesRootMissing) {
		// 主题尚未部署时不做 stale 标记，只保证内置类型存在
		entry.WithField("theme", theme).Warn("主题模板目录不存在，跳过发现")
		result := newResult()
		err = repo.RunInTx(ctx, func(tx Repository) error {
			created, err := s.engine.SeedBuiltins(ctx, tx)
			result.Created = created
			return err
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	var result *Result
	err = repo.RunInTx(ctx, func(tx Repository) error {
		r, err := s.engine.Discover(ctx, tx, scan.Artifacts)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Skipped = append(result.Skipped, scan.Skipped...)
	for _, skipped := range scan.Skipped {
		entry.WithField("path", skipped.Path).Warnf("模板元数据有误，已跳过: %s", skipped.Reason)
	}

	s.refreshCache(ctx, h.Identifier(), theme, scan.Artifacts)

	entry.WithFields(logrus.Fields{
		"theme":   theme,
		"created": len(result.Created),
		"updated": len(result.Updated),
		"stale":   len(result.Stale),
		"skipped": len(result.Skipped),
	}).Info("内容类型发现完成")
	return result, nil
}

// Templates 读取缓存的模板元数据
func (s *Service) Templates(ctx context.Context, tenant string) (*CachedTemplates, bool, error) {
	data, ok, err := s.cache.Get(ctx, tenant, TemplatesCacheKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var cached CachedTemplates
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("解析模板缓存失败: %w", err)
	}
	return &cached, true, nil
}

// InvalidateCache 清除租户缓存
func (s *Service) InvalidateCache(ctx context.Context, tenant string) error {
	return s.cache.Invalidate(ctx, tenant)
}

// refreshCache 缓存失败不影响发现结果
func (s *Service) refreshCache(ctx context.Context, tenant, theme string, artifacts []Artifact) {
	entry := s.log.WithField("store", tenant)
	if err := s.cache.Invalidate(ctx, tenant); err != nil {
		entry.Warnf("清除租户缓存失败: %v", err)
		return
	}
	data, err := json.Marshal(CachedTemplates{Theme: theme, Artifacts: artifacts})
	if err != nil {
		entry.Warnf("序列化模板缓存失败: %v", err)
		return
	}
	if err := s.cache.Set(ctx, tenant, TemplatesCacheKey, data); err != nil {
		entry.Warnf("写入模板缓存失败: %v", err)
	}
}
