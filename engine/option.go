package engine

import (
	"net/url"
	"regexp"
	"strconv"

	"github.com/dszqbsm/noveldl/cache"
	"github.com/dszqbsm/noveldl/collect"
	"github.com/dszqbsm/noveldl/extract"
	"github.com/dszqbsm/noveldl/script"
	"go.uber.org/zap"
)

type Option func(opts *options)

// 下载流程的配置选项
type options struct {
	Logger   *zap.Logger
	Fetcher  collect.Fetcher   // 负责取页面，包含缓存、限速与重试
	Parser   extract.Extractor // 负责从页面中抽取结构化内容
	Output   Output            // 章节的去向
	Cache    cache.Store
	Filter   *script.Filter // 可选的正文后处理脚本
	SplitRe  *regexp.Regexp // 为nil表示不切分
	MaxPages int            // 单个章节或目录最多跟随的分页数

	HeaderRe   *regexp.Regexp // 正文内标题行，非nil时启用无标题内容并入上一条记录
	TitleRe    *regexp.Regexp // 清理正文内标题行
	Pagination *Pagination    // 目录分页接口，为nil表示关闭
}

// 目录分页接口：第N页的地址为URL加上id与page查询参数
type Pagination struct {
	URL      *url.URL
	IDRe     *regexp.Regexp
	MaxPages int // 首页没有分页下拉框时最多请求的页数
}

func (p *Pagination) pageURL(id string, page int) string {
	u := *p.URL
	q := u.Query()
	q.Set("id", id)
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

var defaultOptions = options{
	Logger:   zap.NewNop(),
	Cache:    cache.Nop{},
	MaxPages: 50,
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.Logger = logger
	}
}

func WithFetcher(fetcher collect.Fetcher) Option {
	return func(opts *options) {
		opts.Fetcher = fetcher
	}
}

func WithParser(parser extract.Extractor) Option {
	return func(opts *options) {
		opts.Parser = parser
	}
}

func WithOutput(output Output) Option {
	return func(opts *options) {
		opts.Output = output
	}
}

// 由配置构造下载器时使用的缓存
func WithCache(store cache.Store) Option {
	return func(opts *options) {
		opts.Cache = store
	}
}

func WithFilter(filter *script.Filter) Option {
	return func(opts *options) {
		opts.Filter = filter
	}
}

func WithSplitRegex(re *regexp.Regexp) Option {
	return func(opts *options) {
		opts.SplitRe = re
	}
}

func WithMaxPages(n int) Option {
	return func(opts *options) {
		opts.MaxPages = n
	}
}

// 正文内标题切分，titleRe用于清理切出的标题，可为nil
func WithHeaderSplit(headerRe, titleRe *regexp.Regexp) Option {
	return func(opts *options) {
		opts.HeaderRe = headerRe
		opts.TitleRe = titleRe
	}
}

func WithPagination(p *Pagination) Option {
	return func(opts *options) {
		opts.Pagination = p
	}
}
