package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version 构建时注入
var Version = "dev"

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute 以给定参数和输出运行命令
func execute(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sitectl",
		Short:         "多租户站点的开通与迁移工具",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().Bool("json", false, "以JSON格式输出结果")

	cmd.AddCommand(
		newProvisionCmd(),
		newSyncAllCmd(),
		newDiscoverCmd(),
		newTenantsCmd(),
	)
	return cmd
}
