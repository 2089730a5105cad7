package sqlstorage

// 用于配置sql存储相关的选项

import (
	"github.com/dszqbsm/noveldl/sqldb"
	"go.uber.org/zap"
)

type options struct {
	logger     *zap.Logger
	driver     string
	sqlUrl     string
	table      string
	BatchCount int // 攒够多少条记录写一次库
}

var defaultOptions = options{
	logger:     zap.NewNop(),
	driver:     sqldb.DriverSQLite,
	table:      "chapters",
	BatchCount: 20,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// 配置数据库的连接串
func WithSqlUrl(sqlUrl string) Option {
	return func(opts *options) {
		opts.sqlUrl = sqlUrl
	}
}

func WithDriver(driver string) Option {
	return func(opts *options) {
		if driver != "" {
			opts.driver = driver
		}
	}
}

func WithTable(table string) Option {
	return func(opts *options) {
		if table != "" {
			opts.table = table
		}
	}
}

// 配置批量处理的数量
func WithBatchCount(batchCount int) Option {
	return func(opts *options) {
		if batchCount > 0 {
			opts.BatchCount = batchCount
		}
	}
}
