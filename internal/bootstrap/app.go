// Package bootstrap 按配置组装所有组件，server 与 sitectl 共用。
package bootstrap

import (
	"fmt"
	"time"

	"sitehub/internal/cache"
	"sitehub/internal/contenttype"
	"sitehub/internal/fleet"
	"sitehub/internal/provisioning"
	"sitehub/internal/registry"
	"sitehub/internal/schema"
	"sitehub/internal/services"
	"sitehub/internal/store"
	"sitehub/pkg/config"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App 组装完成的组件
type App struct {
	Config       *config.Config
	Log          *logrus.Logger
	DB           *gorm.DB
	Backend      store.Backend
	Cache        cache.TenantCache
	Registry     *registry.Registry
	Synchronizer *schema.Synchronizer
	Discovery    *contenttype.Service
	Orchestrator *provisioning.Orchestrator
	Fleet        *fleet.Driver
	Tenants      *services.TenantService
	Operators    *services.OperatorService
	Scheduler    *services.FleetSyncScheduler
}

// Options 组装参数
type Options struct {
	// ControlPlane 控制面库的借用句柄，为空时全量同步不包含控制面
	ControlPlane store.Handle
}

// New 组装组件；db 为控制面连接，tenantCache 为空时不缓存
func New(cfg *config.Config, db *gorm.DB, tenantCache cache.TenantCache, log *logrus.Logger, opts Options) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if tenantCache == nil {
		tenantCache = cache.Noop{}
	}

	backend, err := store.NewBackend(db, cfg.Database, store.PoolConfig{
		MaxOpenConns:    cfg.Tenant.MaxOpenConns,
		MaxIdleConns:    cfg.Tenant.MaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	catalog := schema.DefaultCatalog()
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("迁移目录不合法: %w", err)
	}

	reg := registry.New(db)
	synchronizer := schema.NewSynchronizer(catalog, log)
	discovery := contenttype.NewService(cfg.Storage.ThemesRoot, cfg.Seed.ActiveTheme, tenantCache, log)

	orchestrator := provisioning.NewOrchestrator(
		provisioning.Options{
			StorePrefix: cfg.Tenant.StorePrefix,
			DefaultCredential: provisioning.Credential{
				Email:    cfg.Seed.AdminEmail,
				Password: cfg.Seed.AdminPassword,
			},
		},
		reg,
		backend,
		synchronizer,
		discovery,
		provisioning.NewBaselineSeeder(cfg.Seed.ActiveTheme),
		provisioning.NewLocalNamespaces(cfg.Storage.UploadsRoot),
		log,
	)

	fleetOpts := fleet.Options{
		Concurrency:   cfg.Fleet.Concurrency,
		TenantTimeout: cfg.Fleet.TenantTimeout,
	}
	if cfg.Fleet.IncludeControlPlane {
		fleetOpts.ControlPlane = opts.ControlPlane
	}
	driver := fleet.NewDriver(fleetOpts, reg, backend, synchronizer, discovery, discovery, log)

	return &App{
		Config:       cfg,
		Log:          log,
		DB:           db,
		Backend:      backend,
		Cache:        tenantCache,
		Registry:     reg,
		Synchronizer: synchronizer,
		Discovery:    discovery,
		Orchestrator: orchestrator,
		Fleet:        driver,
		Tenants:      services.NewTenantService(reg, orchestrator, backend, discovery, synchronizer, log),
		Operators:    services.NewOperatorService(db),
		Scheduler:    services.NewFleetSyncScheduler(driver, cfg.Fleet.SyncCron, log),
	}, nil
}
