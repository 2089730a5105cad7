package collect

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dszqbsm/noveldl/cache"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Fetcher interface {
	/*
	   输入上下文和页面url，输出解码为utf-8的页面内容

	   缓存命中时直接返回，否则限速后发起请求，失败按配置重试
	*/
	Fetch(ctx context.Context, url string) (*Response, error)
}

type Response struct {
	Body     []byte
	URL      string // 跟随重定向后的最终地址
	Attempts int    // 缓存命中时为0
	Cached   bool
}

type HTTPFetcher struct {
	options
	client *http.Client
}

func New(opts ...Option) *HTTPFetcher {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.header == nil {
		options.header = make(http.Header)
	}
	if options.header.Get("User-Agent") == "" {
		options.header.Set("User-Agent", DefaultUserAgent)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if options.proxy != nil {
		transport.Proxy = options.proxy
	}
	return &HTTPFetcher{
		options: options,
		client: &http.Client{
			Timeout:   options.timeout,
			Transport: transport,
		},
	}
}

/*
输入上下文和页面url，输出响应或FetchError

1. 按url与vary请求头计算缓存键，命中则直接返回，不经过限速与重试
2. 每次尝试前等待限速器，传输错误与非2xx状态码都会重试，共max_retries+1次
3. 成功后把正文写入缓存，缓存写入失败只记录日志
*/
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	key := cache.Key(url, f.header)
	body, ok, err := f.cache.Get(key)
	if err != nil {
		f.logger.Warn("cache read failed, bypassing", zap.String("url", url), zap.Error(err))
	} else if ok {
		f.logger.Debug("cache hit", zap.String("url", url))
		return &Response{Body: body, URL: url, Cached: true}, nil
	}

	req := NewRequest(url)
	var (
		attempts   int
		lastStatus int
		resp       *Response
	)
	operation := func() error {
		attempts++
		if err := req.Check(); err != nil {
			return backoff.Permanent(err)
		}
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		body, finalURL, status, err := f.get(ctx, req)
		lastStatus = status
		if err != nil {
			return err
		}
		resp = &Response{Body: body, URL: finalURL, Attempts: attempts}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		f.logger.Warn("fetch failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.retryDelay), uint64(f.maxRetries)),
		ctx,
	)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		fe := &FetchError{URL: url, Attempts: attempts, StatusCode: lastStatus, Err: err}
		f.logger.Error("fetch failed", zap.String("url", url), zap.Int("attempts", attempts), zap.Error(err))
		return nil, fe
	}

	if err := f.cache.Put(key, resp.Body); err != nil {
		f.logger.Warn("cache write failed", zap.String("url", url), zap.Error(err))
	}
	f.logger.Debug("fetched", zap.String("url", url), zap.Int("attempts", attempts), zap.Int("bytes", len(resp.Body)))
	return resp, nil
}

// 单次GET，返回解码后的正文、最终地址与状态码
func (f *HTTPFetcher) get(ctx context.Context, r *Request) ([]byte, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, nil)
	if err != nil {
		return nil, "", 0, backoff.Permanent(err)
	}
	req.Header = f.header.Clone()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, "", resp.StatusCode, &statusError{code: resp.StatusCode}
	}

	bodyReader := bufio.NewReader(resp.Body)
	e := DeterminEncoding(bodyReader, resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(transform.NewReader(bodyReader, e.NewDecoder()))
	if err != nil {
		return nil, "", resp.StatusCode, err
	}
	return body, resp.Request.URL.String(), resp.StatusCode, nil
}

/*
输入带缓冲的响应体和Content-Type，输出页面编码

优先采用Content-Type中声明的charset，其次嗅探前1024字节中的BOM与meta标签，无法判断时按utf-8处理
*/
func DeterminEncoding(r *bufio.Reader, contentType string) encoding.Encoding {
	bytes, err := r.Peek(1024)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		zap.L().Error("peek body failed", zap.Error(err))
		return unicode.UTF8
	}
	e, _, _ := charset.DetermineEncoding(bytes, contentType)
	return e
}
