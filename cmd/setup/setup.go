package setup

// 命令行各子命令共用的初始化流程：加载配置、创建日志、打开缓存与输出、组装引擎

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dszqbsm/noveldl/cache"
	"github.com/dszqbsm/noveldl/config"
	"github.com/dszqbsm/noveldl/engine"
	"github.com/dszqbsm/noveldl/log"
	"github.com/dszqbsm/noveldl/output"
	_ "github.com/dszqbsm/noveldl/tasklib"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// 命令行覆盖参数，空值表示沿用配置文件
type Overrides struct {
	OutputDir string
	CacheDir  string
	URL       string
	LogFile   string
	LogLevel  string
}

/*
输入配置文件路径与命令行覆盖参数，输出校验后的站点配置

覆盖在文件加载之后、校验之前生效
*/
func LoadConfig(path string, o Overrides) (*config.SiteConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.OutputDir != "" {
		cfg.OutputOptions.Directory = o.OutputDir
	}
	if o.CacheDir != "" {
		cfg.CacheSettings.Directory = o.CacheDir
	}
	if o.URL != "" {
		cfg.StartURL = o.URL
	}
	if o.LogFile != "" {
		cfg.LoggingSettings.File = o.LogFile
	}
	if o.LogLevel != "" {
		cfg.LoggingSettings.Level = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// 一次命令执行所需的全部组件，Close按打开的逆序释放
type Env struct {
	Config  *config.SiteConfig
	Logger  *zap.Logger
	Cache   cache.Store
	Crawler *engine.Crawler
	closers []io.Closer
}

/*
输入配置与是否需要输出，输出组装好的运行环境

只列目录时不创建输出；任何一步失败都会释放已打开的资源
*/
func NewEnv(cfg *config.SiteConfig, withOutput bool) (_ *Env, err error) {
	env := &Env{Config: cfg}
	defer func() {
		if err != nil {
			env.Close()
		}
	}()

	logger, logCloser, err := log.New(log.Settings{
		Level:   cfg.LoggingSettings.Level,
		File:    cfg.LoggingSettings.File,
		Console: cfg.LoggingSettings.Console,
	})
	if err != nil {
		return nil, &config.ConfigError{Field: "logging_settings.level", Reason: err.Error()}
	}
	env.closers = append(env.closers, logCloser)
	env.Logger = logger.With(zap.String("site", cfg.SiteName))
	zap.ReplaceGlobals(env.Logger)

	if env.Cache, err = cache.Open(cfg, env.Logger.Named("cache")); err != nil {
		return nil, err
	}
	env.closers = append(env.closers, env.Cache)

	opts := []engine.Option{
		engine.WithLogger(env.Logger.Named("engine")),
		engine.WithCache(env.Cache),
	}
	var out engine.Output
	if withOutput {
		if out, err = output.New(cfg, env.Logger.Named("output")); err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithOutput(out))
	}
	if env.Crawler, err = engine.NewFromConfig(cfg, opts...); err != nil {
		if out != nil {
			out.Close()
		}
		return nil, err
	}
	return env, nil
}

func (e *Env) Close() error {
	var err error
	if e.Logger != nil {
		_ = e.Logger.Sync()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if e.closers[i] != nil {
			err = multierr.Append(err, e.closers[i].Close())
		}
	}
	e.closers = nil
	return err
}

// 收到中断或终止信号时取消上下文
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
