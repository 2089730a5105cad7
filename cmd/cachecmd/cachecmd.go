package cachecmd

import (
	"fmt"

	"github.com/dszqbsm/noveldl/cache"
	"github.com/dszqbsm/noveldl/cmd/setup"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cache只用于挂载子命令
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the page cache.",
	Long:  "manage the page cache.",
}

var clearCmd = &cobra.Command{
	Use:   "clear <config>",
	Short: "remove every cached page of a site.",
	Long:  "remove every cached page of a site.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Clear(cmd, args[0])
	},
}

var overrides setup.Overrides

func init() {
	clearCmd.Flags().StringVarP(
		&overrides.CacheDir, "cache", "c", "", "override cache directory")
	CacheCmd.AddCommand(clearCmd)
}

// 缓存关闭的站点同样可以清理
func Clear(cmd *cobra.Command, path string) error {
	cfg, err := setup.LoadConfig(path, overrides)
	if err != nil {
		return err
	}
	cfg.CacheSettings.Enabled = true
	cfg.CacheSettings.MemoryEntries = 0
	store, err := cache.Open(cfg, zap.L().Named("cache"))
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cache of %s cleared\n", cfg.SiteName)
	return nil
}
