package cache

import (
	"github.com/dszqbsm/noveldl/config"
	"github.com/dszqbsm/noveldl/sqldb"
	"go.uber.org/zap"
)

/*
输入站点配置，输出对应的缓存实现

缓存关闭时返回Nop；file为默认后端，sqlite与mysql经由sqldb落表；memory_entries大于0时在外层加一层内存缓存
*/
func Open(cfg *config.SiteConfig, logger *zap.Logger) (Store, error) {
	settings := cfg.CacheSettings
	if !settings.Enabled {
		return Nop{}, nil
	}
	opts := []Option{WithLogger(logger), WithTTL(cfg.CacheTTL())}

	var (
		store EntryStore
		err   error
	)
	switch settings.Backend {
	case "sqlite", "mysql":
		driver := sqldb.DriverMySQL
		if settings.Backend == "sqlite" {
			driver = sqldb.DriverSQLite
		}
		db, derr := sqldb.New(
			sqldb.WithDriver(driver),
			sqldb.WithConnURL(cfg.CacheDSN()),
			sqldb.WithLogger(logger.Named("sqldb")),
		)
		if derr != nil {
			return nil, &CacheError{Op: "open", Key: settings.Backend, Err: derr}
		}
		store, err = NewSQLStore(db, DefaultTable, opts...)
		if err != nil {
			db.Close()
		}
	default:
		store, err = NewFileStore(cfg.CacheDir(), opts...)
	}
	if err != nil {
		return nil, err
	}
	if settings.MemoryEntries > 0 {
		return NewLayered(store, settings.MemoryEntries, opts...), nil
	}
	return store, nil
}
