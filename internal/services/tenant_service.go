package services

import (
	"context"
	"errors"
	"fmt"

	"sitehub/internal/contenttype"
	"sitehub/internal/models"
	"sitehub/internal/provisioning"
	"sitehub/internal/registry"
	"sitehub/internal/schema"
	"sitehub/internal/store"

	"github.com/sirupsen/logrus"
)

// ErrTenantNotActive 租户尚未开通完成
var ErrTenantNotActive = errors.New("租户未处于 active 状态")

// TenantDirectory 租户查询
type TenantDirectory interface {
	Get(ctx context.Context, name string) (*models.Tenant, error)
	ListPage(ctx context.Context, status, keyword string, page, pageSize int) ([]models.Tenant, int64, error)
	Records(ctx context.Context, name string, limit int) ([]models.ProvisioningRecord, error)
}

// Provisioner 租户开通
type Provisioner interface {
	Provision(ctx context.Context, name string, cred *provisioning.Credential) (*provisioning.Outcome, error)
}

// StoreOpener 打开租户库
type StoreOpener interface {
	Open(ctx context.Context, identifier string) (store.Handle, error)
}

// TenantDiscovery 租户库上的发现与模板缓存
type TenantDiscovery interface {
	DiscoverStore(ctx context.Context, h store.Handle) (*contenttype.Result, error)
	Templates(ctx context.Context, tenant string) (*contenttype.CachedTemplates, bool, error)
	InvalidateCache(ctx context.Context, tenant string) error
}

// ContentTypeApplier 为已登记的内容类型建表
type ContentTypeApplier interface {
	ApplyRegisteredContentTypes(ctx context.Context, h store.Handle) (*schema.Report, error)
}

// ProvisionRequest 开通请求，管理员凭证都为空时使用默认凭证
type ProvisionRequest struct {
	Name          string `json:"name" binding:"required"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

// DiscoverOutcome 单租户发现结果
type DiscoverOutcome struct {
	Tenant    string              `json:"tenant"`
	Discovery *contenttype.Result `json:"discovery"`
	Schema    *schema.Report      `json:"schema"`
}

// TenantService 租户管理
type TenantService struct {
	directory   TenantDirectory
	provisioner Provisioner
	opener      StoreOpener
	discovery   TenantDiscovery
	applier     ContentTypeApplier
	log         *logrus.Logger
}

// NewTenantService 创建租户管理服务
func NewTenantService(directory TenantDirectory, provisioner Provisioner, opener StoreOpener,
	discovery TenantDiscovery, applier ContentTypeApplier, log *logrus.Logger) *TenantService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TenantService{
		directory:   directory,
		provisioner: provisioner,
		opener:      opener,
		discovery:   discovery,
		applier:     applier,
		log:         log,
	}
}

// Provision 开通租户
func (s *TenantService) Provision(ctx context.Context, req ProvisionRequest) (*provisioning.Outcome, error) {
	var cred *provisioning.Credential
	if req.AdminEmail != "" || req.AdminPassword != "" {
		cred = &provisioning.Credential{Email: req.AdminEmail, Password: req.AdminPassword}
	}
	return s.provisioner.Provision(ctx, req.Name, cred)
}

// List 分页列出租户
func (s *TenantService) List(ctx context.Context, status, keyword string, page, pageSize int) ([]models.Tenant, int64, error) {
	return s.directory.ListPage(ctx, status, keyword, page, pageSize)
}

// Get 查询租户
func (s *TenantService) Get(ctx context.Context, name string) (*models.Tenant, error) {
	return s.directory.Get(ctx, name)
}

// Records 租户的开通流水
func (s *TenantService) Records(ctx context.Context, name string, limit int) ([]models.ProvisioningRecord, error) {
	if _, err := s.directory.Get(ctx, name); err != nil {
		return nil, err
	}
	return s.directory.Records(ctx, name, limit)
}

// Discover 对单个租户重新执行内容类型发现，并为新发现的类型建表
func (s *TenantService) Discover(ctx context.Context, name string) (*DiscoverOutcome, error) {
	tenant, err := s.activeTenant(ctx, name)
	if err != nil {
		return nil, err
	}

	h, err := s.opener.Open(ctx, tenant.StoreIdentifier)
	if err != nil {
		return nil, fmt.Errorf("打开租户库失败: %w", err)
	}
	defer func() {
		if err := h.Close(); err != nil {
			s.log.WithField("tenant", name).Warnf("关闭租户库连接失败: %v", err)
		}
	}()

	result, err := s.discovery.DiscoverStore(ctx, h)
	if err != nil {
		return nil, err
	}
	report, err := s.applier.ApplyRegisteredContentTypes(ctx, h)
	if err != nil {
		return nil, err
	}
	return &DiscoverOutcome{Tenant: name, Discovery: result, Schema: report}, nil
}

// Templates 读取租户的模板缓存
func (s *TenantService) Templates(ctx context.Context, name string) (*contenttype.CachedTemplates, bool, error) {
	tenant, err := s.activeTenant(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return s.discovery.Templates(ctx, tenant.StoreIdentifier)
}

// InvalidateCache 清除租户缓存
func (s *TenantService) InvalidateCache(ctx context.Context, name string) error {
	tenant, err := s.directory.Get(ctx, name)
	if err != nil {
		return err
	}
	return s.discovery.InvalidateCache(ctx, tenant.StoreIdentifier)
}

func (s *TenantService) activeTenant(ctx context.Context, name string) (*models.Tenant, error) {
	tenant, err := s.directory.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrTenantNotActive, name, tenant.Status)
	}
	return tenant, nil
}

// IsNotFound 租户不存在
func IsNotFound(err error) bool {
	return errors.Is(err, registry.ErrNotFound)
}
