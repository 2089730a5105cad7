package collect

import (
	"net/http"
	"time"

	"github.com/dszqbsm/noveldl/cache"
	"github.com/dszqbsm/noveldl/limiter"
	"github.com/dszqbsm/noveldl/proxy"
	"go.uber.org/zap"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

type options struct {
	logger     *zap.Logger
	header     http.Header
	proxy      proxy.ProxyFunc
	timeout    time.Duration
	limiter    limiter.RateLimiter
	cache      cache.Store
	maxRetries int
	retryDelay time.Duration
}

var defaultOptions = options{
	logger:     zap.NewNop(),
	timeout:    30 * time.Second,
	limiter:    limiter.NewDelayLimiter(0),
	cache:      cache.Nop{},
	maxRetries: 3,
	retryDelay: 2 * time.Second,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// 站点配置的请求头，未设置User-Agent时使用默认值
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		h := make(http.Header, len(headers))
		for k, v := range headers {
			h.Set(k, v)
		}
		opts.header = h
	}
}

func WithProxy(p proxy.ProxyFunc) Option {
	return func(opts *options) {
		opts.proxy = p
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

func WithLimiter(l limiter.RateLimiter) Option {
	return func(opts *options) {
		opts.limiter = l
	}
}

func WithCache(s cache.Store) Option {
	return func(opts *options) {
		opts.cache = s
	}
}

// 失败后额外重试maxRetries次，每次间隔delay
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(opts *options) {
		opts.maxRetries = maxRetries
		opts.retryDelay = delay
	}
}
