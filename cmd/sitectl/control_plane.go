package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"sitehub/internal/bootstrap"
	"sitehub/internal/database"
	"sitehub/internal/fleet"
	"sitehub/internal/models"
	"sitehub/internal/provisioning"
	"sitehub/internal/services"
	"sitehub/pkg/config"
	"sitehub/pkg/logger"

	"github.com/spf13/cobra"
)

// ErrFleetIncomplete 全量同步存在失败或未执行的租户
var ErrFleetIncomplete = errors.New("全量同步未全部成功")

// controlPlane 命令用到的控制面操作
type controlPlane interface {
	Provision(ctx context.Context, req services.ProvisionRequest) (*provisioning.Outcome, error)
	List(ctx context.Context, status, keyword string, page, pageSize int) ([]models.Tenant, int64, error)
	Discover(ctx context.Context, name string) (*services.DiscoverOutcome, error)
	SyncAll(ctx context.Context) (*fleet.Result, error)
	Close() error
}

var loadConfig = config.LoadConfig

// connect 连接控制面并组装组件，测试中可替换
var connect = func(cfg *config.Config) (controlPlane, error) {
	if err := logger.Initialize(cfg); err != nil {
		return nil, err
	}
	if err := database.Initialize(cfg); err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		_ = database.Close()
		return nil, err
	}
	app, err := bootstrap.New(cfg, database.GetDB(), database.NewTenantCache(cfg.Redis), logger.GetLogger(),
		bootstrap.Options{ControlPlane: database.ControlPlaneHandle()})
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return &appControlPlane{TenantService: app.Tenants, driver: app.Fleet}, nil
}

type appControlPlane struct {
	*services.TenantService
	driver *fleet.Driver
}

func (a *appControlPlane) SyncAll(ctx context.Context) (*fleet.Result, error) {
	return a.driver.SyncAll(ctx)
}

func (a *appControlPlane) Close() error {
	return errors.Join(database.Close(), database.CloseRedis())
}

// withControlPlane 加载配置、连接控制面后执行 fn
func withControlPlane(cmd *cobra.Command, adjust func(*config.Config), fn func(context.Context, controlPlane) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if adjust != nil {
		adjust(cfg)
	}
	cp, err := connect(cfg)
	if err != nil {
		return fmt.Errorf("连接控制面失败: %w", err)
	}
	defer func() { _ = cp.Close() }()
	return fn(cmd.Context(), cp)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
