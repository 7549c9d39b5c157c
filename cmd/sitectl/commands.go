package main

import (
	"context"
	"fmt"
	"strings"

	"sitehub/internal/fleet"
	"sitehub/internal/services"
	"sitehub/pkg/config"

	"github.com/spf13/cobra"
)

func newProvisionCmd() *cobra.Command {
	var req services.ProvisionRequest
	cmd := &cobra.Command{
		Use:   "provision <name>",
		Short: "开通新租户",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			return withControlPlane(cmd, nil, func(ctx context.Context, cp controlPlane) error {
				outcome, err := cp.Provision(ctx, req)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), outcome)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "租户 %s 开通成功\n物理库: %s\n上传目录: %s\n迁移单元: %d\n运行ID: %s\n",
					req.Name, outcome.StoreIdentifier, outcome.Namespace, outcome.UnitsApplied, outcome.RunID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.AdminEmail, "admin-email", "", "站点管理员邮箱，不填使用默认凭证")
	cmd.Flags().StringVar(&req.AdminPassword, "admin-password", "", "站点管理员密码")
	return cmd
}

func newSyncAllCmd() *cobra.Command {
	var concurrency int
	var noControlPlane bool
	cmd := &cobra.Command{
		Use:   "sync-all",
		Short: "对所有 active 租户执行迁移同步",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			adjust := func(cfg *config.Config) {
				if concurrency > 0 {
					cfg.Fleet.Concurrency = concurrency
				}
				if noControlPlane {
					cfg.Fleet.IncludeControlPlane = false
				}
			}
			return withControlPlane(cmd, adjust, func(ctx context.Context, cp controlPlane) error {
				result, err := cp.SyncAll(ctx)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					if err := printJSON(cmd.OutOrStdout(), result); err != nil {
						return err
					}
				} else {
					printFleetResult(cmd, result)
				}
				if !result.OK() {
					return ErrFleetIncomplete
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "同时迁移的租户数，默认取配置")
	cmd.Flags().BoolVar(&noControlPlane, "no-control-plane", false, "不同步控制面库")
	return cmd
}

func printFleetResult(cmd *cobra.Command, result *fleet.Result) {
	out := cmd.OutOrStdout()
	for _, o := range result.Succeeded {
		applied := 0
		if o.Report != nil {
			applied = o.Report.Applied()
		}
		fmt.Fprintf(out, "OK     %-24s 新应用 %d 个单元 (%s)\n", o.Tenant, applied, o.Duration)
	}
	for _, o := range result.Failed {
		fmt.Fprintf(out, "FAILED %-24s %s\n", o.Tenant, o.Error)
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "SKIPPED %s\n", strings.Join(result.Skipped, ", "))
	}
	fmt.Fprintf(out, "成功 %d，失败 %d，跳过 %d\n", len(result.Succeeded), len(result.Failed), len(result.Skipped))
}

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <name>",
		Short: "重新扫描租户主题模板并登记内容类型",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withControlPlane(cmd, nil, func(ctx context.Context, cp controlPlane) error {
				outcome, err := cp.Discover(ctx, args[0])
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), outcome)
				}
				d := outcome.Discovery
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "新增: %s\n", joinOrDash(d.Created))
				fmt.Fprintf(out, "更新: %s\n", joinOrDash(d.Updated))
				fmt.Fprintf(out, "失效: %s\n", joinOrDash(d.Stale))
				for _, s := range d.Skipped {
					fmt.Fprintf(out, "跳过: %s (%s)\n", s.Path, s.Reason)
				}
				return nil
			})
		},
	}
}

func newTenantsCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "列出租户",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withControlPlane(cmd, nil, func(ctx context.Context, cp controlPlane) error {
				tenants, _, err := cp.List(ctx, status, "", 1, 100)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), tenants)
				}
				for _, t := range tenants {
					fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-10s %s\n", t.Name, t.Status, t.StoreIdentifier)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "按状态筛选（pending/active/failed）")
	return cmd
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
