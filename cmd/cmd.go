package cmd

import (
	"os"

	"github.com/dszqbsm/noveldl/cmd/cachecmd"
	"github.com/dszqbsm/noveldl/cmd/chapters"
	"github.com/dszqbsm/noveldl/cmd/download"
	"github.com/dszqbsm/noveldl/version"
	"github.com/spf13/cobra"
)

// download执行完整下载，chapters只列出目录，cache clear清空站点缓存，version打印版本信息

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Long:  "print version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version.Printer(cmd.OutOrStdout())
	},
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "noveldl",
		Short:        "download serialized novels from configurable sites.",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(download.DownloadCmd, chapters.ChaptersCmd, cachecmd.CacheCmd, versionCmd)
	return rootCmd
}

// 命令失败时以非零码退出
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
