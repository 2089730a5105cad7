package download

import (
	"errors"
	"fmt"

	"github.com/dszqbsm/noveldl/cmd/setup"
	"github.com/dszqbsm/noveldl/engine"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var DownloadCmd = &cobra.Command{
	Use:   "download <config>",
	Short: "download a novel described by a site config.",
	Long:  "download a novel described by a site config, chapter by chapter, into the configured output.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(cmd, args[0])
	},
}

var (
	overrides  setup.Overrides
	chapters   string
	clearCache bool
)

func init() {
	DownloadCmd.Flags().StringVarP(
		&overrides.OutputDir, "output", "o", "", "override output directory")
	DownloadCmd.Flags().StringVarP(
		&overrides.CacheDir, "cache", "c", "", "override cache directory")
	DownloadCmd.Flags().StringVar(
		&overrides.URL, "url", "", "override start url")
	DownloadCmd.Flags().StringVar(
		&chapters, "chapters", "", `chapter selection, e.g. "1-5,8,10-12"`)
	DownloadCmd.Flags().BoolVar(
		&clearCache, "clear-cache", false, "clear the site cache before downloading")
	DownloadCmd.Flags().StringVar(
		&overrides.LogFile, "log-file", "", "also write logs to this file")
	DownloadCmd.Flags().StringVar(
		&overrides.LogLevel, "log-level", "", "override log level")
}

// 运行状态为Failed时返回错误，命令以非零码退出
func Run(cmd *cobra.Command, path string) error {
	cfg, err := setup.LoadConfig(path, overrides)
	if err != nil {
		return err
	}
	env, err := setup.NewEnv(cfg, true)
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.Logger

	if clearCache {
		if err := env.Cache.Clear(); err != nil {
			logger.Warn("clear cache failed", zap.Error(err))
		} else {
			logger.Info("cache cleared")
		}
	}

	ctx, cancel := setup.Context()
	defer cancel()

	selection := engine.ParseSelection(chapters, logger)
	res, err := env.Crawler.Run(ctx, cfg.StartURL, selection)
	printResult(cmd, res)
	if err != nil {
		return err
	}
	if res.Status != engine.StatusCompleted {
		return errors.New("download failed")
	}
	return nil
}

func printResult(cmd *cobra.Command, res *engine.Result) {
	if res == nil {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %s %q, %d/%d chapters, %d records\n",
		res.RunID, res.Status, res.Title, res.Emitted, res.Total, res.Records)
	for _, s := range res.Skipped {
		fmt.Fprintf(out, "  skipped %04d %s: %v\n", s.Index, s.URL, s.Err)
	}
}
