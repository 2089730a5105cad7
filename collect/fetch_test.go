package collect

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dszqbsm/noveldl/cache"
	"github.com/dszqbsm/noveldl/config"
	"github.com/dszqbsm/noveldl/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// 前failures次返回500，之后返回body
func flakyServer(t *testing.T, failures int32, body string) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newFileCache(t *testing.T) cache.Store {
	s, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFetchRetriesExhausted(t *testing.T) {
	for _, maxRetries := range []int{0, 1, 3} {
		srv, hits := flakyServer(t, 100, "")
		f := New(WithRetry(maxRetries, 0))

		_, err := f.Fetch(context.Background(), srv.URL)
		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, maxRetries+1, fe.Attempts)
		assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
		assert.Equal(t, int32(maxRetries+1), atomic.LoadInt32(hits))
	}
}

func TestFetchRecoversWithinRetries(t *testing.T) {
	srv, hits := flakyServer(t, 2, "<p>ok</p>")
	f := New(WithRetry(3, time.Millisecond))

	resp, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Attempts)
	assert.False(t, resp.Cached)
	assert.Equal(t, "<p>ok</p>", string(resp.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestFetchCacheHitBypassesNetwork(t *testing.T) {
	srv, hits := flakyServer(t, 0, "cached body")
	f := New(WithCache(newFileCache(t)), WithLimiter(limiter.NewDelayLimiter(time.Hour)))

	first, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempts)

	// 限速器一小时只放行一次，命中缓存时不会等待
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	second, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 0, second.Attempts)
	assert.Equal(t, "cached body", string(second.Body))
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestFetchCacheDisabled(t *testing.T) {
	srv, hits := flakyServer(t, 0, "x")
	f := New(WithCache(cache.Nop{}))
	for i := 0; i < 3; i++ {
		resp, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.False(t, resp.Cached)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestFetchRateLimited(t *testing.T) {
	srv, _ := flakyServer(t, 0, "x")
	delay := 30 * time.Millisecond
	f := New(WithLimiter(limiter.NewDelayLimiter(delay)))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestFetchInvalidURLIsPermanent(t *testing.T) {
	f := New(WithRetry(5, 0))
	_, err := f.Fetch(context.Background(), "/relative/path")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 1, fe.Attempts)
	assert.Equal(t, 0, fe.StatusCode)
}

func TestFetchContextCancelled(t *testing.T) {
	srv, _ := flakyServer(t, 100, "")
	f := New(WithRetry(10, time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, srv.URL)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchHeadersAndDecoding(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("<html><body>第一章 开始</body></html>")
	require.NoError(t, err)

	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		w.Write([]byte(gbk))
	}))
	defer srv.Close()

	f := New(WithHeaders(map[string]string{"Accept-Language": "zh-CN"}))
	resp, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(resp.Body), "第一章 开始")
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "zh-CN", gotLang)
}

func TestDeterminEncodingMeta(t *testing.T) {
	page := `<html><head><meta charset="gb2312"></head><body>x</body></html>`
	e := DeterminEncoding(bufio.NewReader(strings.NewReader(page)), "")
	raw, err := simplifiedchinese.GBK.NewEncoder().String("中文")
	require.NoError(t, err)
	decoded, err := e.NewDecoder().String(raw)
	require.NoError(t, err)
	assert.Equal(t, "中文", decoded)
}

func TestDeterminEncodingContentType(t *testing.T) {
	e := DeterminEncoding(bufio.NewReader(strings.NewReader("<p>x</p>")), "text/html; charset=utf-8")
	decoded, err := e.NewDecoder().String("中文")
	require.NoError(t, err)
	assert.Equal(t, "中文", decoded)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Proxies = map[string]string{"http": "://bad"}
	_, err := FromConfig(cfg, cache.Nop{}, zap.NewNop())
	var cerr *config.ConfigError
	assert.True(t, errors.As(err, &cerr))

	cfg.Proxies = nil
	cfg.RateLimits = []config.LimitConfig{{EventCount: 10, EventDur: 1}}
	f, err := FromConfig(cfg, cache.Nop{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, f.maxRetries)
	assert.Equal(t, 2*time.Second, f.retryDelay)
}

func TestRequestUnique(t *testing.T) {
	a := NewRequest("http://e.com/1")
	b := NewRequest("http://e.com/1")
	c := NewRequest("http://e.com/2")
	assert.Equal(t, a.Unique(), b.Unique())
	assert.NotEqual(t, a.Unique(), c.Unique())
}

func TestFromConfigProxyPool(t *testing.T) {
	var hits [2]int32
	proxies := make([]string, 2)
	for i := range proxies {
		i := i
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits[i], 1)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("via " + r.URL.Host))
		}))
		t.Cleanup(srv.Close)
		proxies[i] = srv.URL
	}

	cfg := config.Default()
	cfg.DownloadDelay = 0
	cfg.MaxRetries = 0
	cfg.Proxies = map[string]string{"http": "http://unused:1"}
	cfg.ProxyPool = proxies
	f, err := FromConfig(cfg, cache.Nop{}, zap.NewNop())
	require.NoError(t, err)

	for _, u := range []string{"http://novel.test/1.html", "http://novel.test/2.html"} {
		resp, err := f.Fetch(context.Background(), u)
		require.NoError(t, err)
		assert.Equal(t, "via novel.test", string(resp.Body))
	}
	// 轮询使用代理池，proxies被忽略
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits[0]))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits[1]))

	cfg.ProxyPool = []string{"://bad"}
	_, err = FromConfig(cfg, cache.Nop{}, zap.NewNop())
	var cerr *config.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "proxy_pool", cerr.Field)
}
