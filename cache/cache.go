package cache

// 页面缓存：以请求标识为键，保存解码后的页面正文，按写入时间判断是否过期

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 影响响应内容的请求头，参与缓存键的计算
var VaryHeaders = []string{"Accept", "Accept-Language", "Cookie"}

const keyHintLen = 200

type Store interface {
	// 条目不存在或已过期时ok为false
	Get(key string) (body []byte, ok bool, err error)
	// 无条件覆盖，并以当前时间作为写入时间
	Put(key string, body []byte) error
	Delete(key string) error
	Clear() error
	Close() error
}

// 持久化后端额外暴露条目本身，内存层据此沿用原始写入时间
type EntryStore interface {
	Store
	GetEntry(key string) (*Entry, bool, error)
}

type Entry struct {
	Payload   string  `json:"payload"`
	CreatedAt float64 `json:"created_at"` // unix秒，含小数
	KeyHint   string  `json:"key_hint"`
}

func (e *Entry) StoredAt() time.Time {
	sec := int64(e.CreatedAt)
	nsec := int64((e.CreatedAt - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

func newEntry(key string, body []byte, now time.Time) *Entry {
	return &Entry{
		Payload:   string(body),
		CreatedAt: float64(now.UnixNano()) / float64(time.Second),
		KeyHint:   hint(key),
	}
}

func hint(key string) string {
	if len(key) > keyHintLen {
		return key[:keyHintLen]
	}
	return key
}

/*
输入请求url与请求头，输出缓存键

键由url加上排序后的vary请求头组成，请求头不同的同一url不会互相命中
*/
func Key(url string, header http.Header) string {
	var b strings.Builder
	b.WriteString(url)
	names := append([]string(nil), VaryHeaders...)
	sort.Strings(names)
	for _, name := range names {
		v := header.Get(name)
		if v == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(strings.ToLower(name))
		b.WriteString(":")
		b.WriteString(v)
	}
	return b.String()
}

// 键的sha256摘要，用作文件名与数据库主键
func Hash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

type options struct {
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

var defaultOptions = options{
	logger: zap.NewNop(),
	now:    time.Now,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// ttl<=0 表示永不过期
func WithTTL(ttl time.Duration) Option {
	return func(opts *options) {
		opts.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		opts.now = now
	}
}

func (o options) expired(e *Entry) bool {
	if o.ttl <= 0 {
		return false
	}
	return o.now().Sub(e.StoredAt()) >= o.ttl
}

// 缓存读写失败，调用方记录后绕过缓存
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, hint(e.Key), e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// 关闭缓存时使用，Get始终未命中，Put不做任何事
type Nop struct{}

func (Nop) Get(string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Put(string, []byte) error         { return nil }
func (Nop) Delete(string) error              { return nil }
func (Nop) Clear() error                     { return nil }
func (Nop) Close() error                     { return nil }
