package chapters

import (
	"fmt"

	"github.com/dszqbsm/noveldl/cmd/setup"
	"github.com/spf13/cobra"
)

var ChaptersCmd = &cobra.Command{
	Use:   "chapters <config>",
	Short: "list the chapters of a novel.",
	Long:  "list the chapters of a novel without downloading their content.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(cmd, args[0])
	},
}

var overrides setup.Overrides

func init() {
	ChaptersCmd.Flags().StringVar(
		&overrides.URL, "url", "", "override start url")
	ChaptersCmd.Flags().StringVarP(
		&overrides.CacheDir, "cache", "c", "", "override cache directory")
	ChaptersCmd.Flags().StringVar(
		&overrides.LogLevel, "log-level", "", "override log level")
}

// 只执行目录阶段，每行输出 序号: 标题 (地址)
func Run(cmd *cobra.Command, path string) error {
	cfg, err := setup.LoadConfig(path, overrides)
	if err != nil {
		return err
	}
	env, err := setup.NewEnv(cfg, false)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := setup.Context()
	defer cancel()

	title, refs, err := env.Crawler.ListChapters(ctx, cfg.StartURL)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, title)
	for _, r := range refs {
		fmt.Fprintf(out, "%04d: %s (%s)\n", r.Index, r.Title, r.URL)
	}
	return nil
}
