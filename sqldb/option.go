package sqldb

// 函数式选项模式

import (
	"go.uber.org/zap"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type options struct {
	logger *zap.Logger
	driver string
	sqlURL string
}

var defaultOptions = options{
	logger: zap.NewNop(),
	driver: DriverMySQL,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// 配置数据库连接串，mysql为DSN，sqlite3为文件路径
func WithConnURL(sqlURL string) Option {
	return func(opts *options) {
		opts.sqlURL = sqlURL
	}
}

// 配置驱动名，mysql或sqlite3
func WithDriver(driver string) Option {
	return func(opts *options) {
		opts.driver = driver
	}
}
