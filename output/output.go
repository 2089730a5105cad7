package output

import (
	"fmt"
	"strings"

	"github.com/dszqbsm/noveldl/config"
	"github.com/dszqbsm/noveldl/engine"
	"github.com/dszqbsm/noveldl/output/sqlstorage"
	"go.uber.org/zap"
)

/*
输入站点配置，输出对应格式的章节输出

txt为逐章文本文件，sql为批量写入数据库；epub与未知格式返回ConfigError
*/
func New(cfg *config.SiteConfig, logger *zap.Logger) (engine.Output, error) {
	o := cfg.OutputOptions
	switch strings.ToLower(o.Format) {
	case "txt":
		w, err := NewTextWriter(o.Directory, o.Encoding, WithMerge(o.MergeChapters), WithLogger(logger))
		if err != nil {
			return nil, &config.ConfigError{Field: "output_options.encoding", Reason: err.Error()}
		}
		return w, nil
	case "sql":
		s, err := sqlstorage.New(
			sqlstorage.WithDriver(o.Driver),
			sqlstorage.WithSqlUrl(cfg.OutputDSN()),
			sqlstorage.WithTable(o.Table),
			sqlstorage.WithBatchCount(o.BatchCount),
			sqlstorage.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "epub":
		return nil, &config.ConfigError{Field: "output_options.format", Reason: "epub packaging is not supported"}
	default:
		return nil, &config.ConfigError{Field: "output_options.format", Reason: fmt.Sprintf("unknown format %q", o.Format)}
	}
}
