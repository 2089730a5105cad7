package collect

import (
	"time"

	"github.com/dszqbsm/noveldl/cache"
	"github.com/dszqbsm/noveldl/config"
	"github.com/dszqbsm/noveldl/limiter"
	"github.com/dszqbsm/noveldl/proxy"
	"go.uber.org/zap"
)

/*
输入站点配置、缓存与日志，输出按配置组装的HTTPFetcher

proxy_pool非空时优先于proxies；download_delay对应基础限速器，rate_limits中的每一项各自生成一个窗口限速器，经limiter.Multi组合
*/
func FromConfig(cfg *config.SiteConfig, store cache.Store, logger *zap.Logger) (*HTTPFetcher, error) {
	p, err := proxy.FromSettings(cfg.Proxies, cfg.ProxyPool)
	if err != nil {
		field := "proxies"
		if len(cfg.ProxyPool) > 0 {
			field = "proxy_pool"
		}
		return nil, &config.ConfigError{Field: field, Reason: err.Error()}
	}
	limits := []limiter.RateLimiter{limiter.NewDelayLimiter(cfg.Delay())}
	for _, l := range cfg.RateLimits {
		limits = append(limits, limiter.NewWindowLimiter(l.EventCount, time.Duration(l.EventDur)*time.Second))
	}
	return New(
		WithLogger(logger),
		WithHeaders(cfg.Headers),
		WithProxy(p),
		WithTimeout(cfg.RequestTimeout()),
		WithLimiter(limiter.Multi(limits...)),
		WithCache(store),
		WithRetry(cfg.MaxRetries, cfg.RetryInterval()),
	), nil
}
