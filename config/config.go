package config

// 站点配置文档的结构定义、默认值与加载

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type LimitConfig struct {
	EventCount int `json:"event_count" yaml:"event_count"`
	EventDur   int `json:"event_dur" yaml:"event_dur"` // 秒
}

// 站点选择器，值为空表示对应功能关闭
type Selectors struct {
	NovelTitle     string `json:"novel_title_selector" yaml:"novel_title_selector"`
	ChapterList    string `json:"chapter_list_selector" yaml:"chapter_list_selector"`
	ChapterTitle   string `json:"chapter_title_selector" yaml:"chapter_title_selector"`
	ChapterContent string `json:"chapter_content_selector" yaml:"chapter_content_selector"`
	NextPage       string `json:"next_page_selector" yaml:"next_page_selector"`
	TocNextPage    string `json:"toc_next_page_selector" yaml:"toc_next_page_selector"`
}

type TitlePatterns struct {
	RemoveRegex string `json:"remove_regex" yaml:"remove_regex"`
}

// 正文内按标题行切分，标题之前的无标题内容并入上一条记录
type InContentSplitting struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	HeaderRegex string `json:"header_regex" yaml:"header_regex"`
}

/*
目录分页接口配置

ajax_url配置后，从start_url中用id_from_url_regex的第一个分组取出小说id，以id与page为查询参数依次GET第2页及以后的目录；
总页数取目录首页分页下拉框的选项数，没有下拉框时最多请求max_ajax_pages页
*/
type PaginationConfig struct {
	AjaxURL         string `json:"ajax_url" yaml:"ajax_url"`
	AjaxMethod      string `json:"ajax_method" yaml:"ajax_method"`
	IDFromURLRegex  string `json:"id_from_url_regex" yaml:"id_from_url_regex"`
	SelectSelector  string `json:"pagination_select_selector" yaml:"pagination_select_selector"`
	OptionSelector  string `json:"pagination_option_selector" yaml:"pagination_option_selector"`
	MaxAjaxPages    int    `json:"max_ajax_pages" yaml:"max_ajax_pages"`
	ChaptersHTMLKey string `json:"json_response_chapters_html_key" yaml:"json_response_chapters_html_key"`
}

type OutputOptions struct {
	Format        string `json:"format" yaml:"format"`
	Encoding      string `json:"encoding" yaml:"encoding"`
	MergeChapters bool   `json:"merge_chapters" yaml:"merge_chapters"`
	Directory     string `json:"directory" yaml:"directory"`
	Driver        string `json:"driver" yaml:"driver"` // format为sql时使用，mysql或sqlite3
	DSN           string `json:"dsn" yaml:"dsn"`
	Table         string `json:"table" yaml:"table"`
	BatchCount    int    `json:"batch_count" yaml:"batch_count"`
}

type CacheSettings struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	Directory        string `json:"directory" yaml:"directory"`
	ExpiresInSeconds int64  `json:"expires_in_seconds" yaml:"expires_in_seconds"` // <=0 表示永不过期
	Backend          string `json:"backend" yaml:"backend"`                       // file、sqlite或mysql
	DSN              string `json:"dsn" yaml:"dsn"`
	MemoryEntries    int    `json:"memory_entries" yaml:"memory_entries"`
}

type LoggingSettings struct {
	Level   string `json:"level" yaml:"level"`
	File    string `json:"file" yaml:"file"`
	Console bool   `json:"console" yaml:"console"`
}

// 一次下载任务使用的站点配置，加载后只读
type SiteConfig struct {
	SiteName        string            `json:"site_name" yaml:"site_name"`
	BaseURL         string            `json:"base_url" yaml:"base_url"`
	StartURL        string            `json:"start_url" yaml:"start_url"`
	DownloaderClass string            `json:"downloader_class" yaml:"downloader_class"`
	ParserClass     string            `json:"parser_class" yaml:"parser_class"`
	Headers         map[string]string `json:"headers" yaml:"headers"`
	Proxies         map[string]string `json:"proxies" yaml:"proxies"`
	ProxyPool       []string          `json:"proxy_pool" yaml:"proxy_pool"` // 非空时轮询使用，优先于proxies

	DownloadDelay float64       `json:"download_delay" yaml:"download_delay"` // 秒
	MaxRetries    int           `json:"max_retries" yaml:"max_retries"`
	RetryDelay    float64       `json:"retry_delay" yaml:"retry_delay"` // 秒
	Timeout       float64       `json:"timeout" yaml:"timeout"`         // 秒
	RateLimits    []LimitConfig `json:"rate_limits" yaml:"rate_limits"`

	Selectors     `yaml:",inline"`
	TitlePatterns TitlePatterns `json:"title_patterns" yaml:"title_patterns"`

	ChapterSplittingEnabled bool   `json:"chapter_splitting_enabled" yaml:"chapter_splitting_enabled"`
	ChapterSplittingRegex   string `json:"chapter_splitting_regex" yaml:"chapter_splitting_regex"`
	ContentScript           string `json:"content_script" yaml:"content_script"`
	MaxPagesPerChapter      int    `json:"max_pages_per_chapter" yaml:"max_pages_per_chapter"`

	InContentSplitting InContentSplitting `json:"in_content_splitting" yaml:"in_content_splitting"`
	PaginationConfig   PaginationConfig   `json:"pagination_config" yaml:"pagination_config"`

	OutputOptions   OutputOptions   `json:"output_options" yaml:"output_options"`
	CacheSettings   CacheSettings   `json:"cache_settings" yaml:"cache_settings"`
	LoggingSettings LoggingSettings `json:"logging_settings" yaml:"logging_settings"`
}

const (
	DefaultSiteName   = "default_site"
	DefaultMaxPages   = 50
	DefaultBatchCount = 20
	DefaultAjaxPages  = 10
)

// 文档中未出现的字段保持这里的取值
func Default() *SiteConfig {
	return &SiteConfig{
		SiteName:           DefaultSiteName,
		DownloadDelay:      1,
		MaxRetries:         3,
		RetryDelay:         2,
		Timeout:            30,
		MaxPagesPerChapter: DefaultMaxPages,
		PaginationConfig: PaginationConfig{
			AjaxMethod:     "GET",
			SelectSelector: "select.select",
			OptionSelector: "option",
			MaxAjaxPages:   DefaultAjaxPages,
		},
		OutputOptions: OutputOptions{
			Format:        "txt",
			Encoding:      "utf-8",
			MergeChapters: true,
			Directory:     "output",
			Driver:        "sqlite3",
			Table:         "chapters",
			BatchCount:    DefaultBatchCount,
		},
		CacheSettings: CacheSettings{
			Enabled:       true,
			Directory:     "cache",
			Backend:       "file",
			MemoryEntries: 128,
		},
		LoggingSettings: LoggingSettings{
			Level:   "info",
			Console: true,
		},
	}
}

/*
输入配置文件路径，输出站点配置

根据扩展名选择yaml或json解码，解码结果覆盖在默认值之上；加载不做校验，命令行覆盖参数生效后再调用Validate
*/
func Load(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "config", Reason: err.Error()}
	}
	return Parse(data, filepath.Ext(path))
}

func Parse(data []byte, ext string) (*SiteConfig, error) {
	cfg := Default()
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, &ConfigError{Field: "config", Reason: fmt.Sprintf("decode failed: %v", err)}
	}
	return cfg, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func (c *SiteConfig) Delay() time.Duration {
	return seconds(c.DownloadDelay)
}

func (c *SiteConfig) RetryInterval() time.Duration {
	return seconds(c.RetryDelay)
}

func (c *SiteConfig) RequestTimeout() time.Duration {
	return seconds(c.Timeout)
}

// 过期时间，返回0表示永不过期
func (c *SiteConfig) CacheTTL() time.Duration {
	if c.CacheSettings.ExpiresInSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheSettings.ExpiresInSeconds) * time.Second
}

// 缓存按站点隔离到独立目录
func (c *SiteConfig) CacheDir() string {
	return filepath.Join(c.CacheSettings.Directory, c.SiteName)
}

// sqlite后端未配置dsn时落在缓存目录下
func (c *SiteConfig) CacheDSN() string {
	if c.CacheSettings.DSN != "" || c.CacheSettings.Backend != "sqlite" {
		return c.CacheSettings.DSN
	}
	return filepath.Join(c.CacheDir(), "cache.db")
}

// sqlite输出未配置dsn时落在输出目录下
func (c *SiteConfig) OutputDSN() string {
	o := c.OutputOptions
	if o.DSN != "" || o.Driver != "sqlite3" {
		return o.DSN
	}
	return filepath.Join(o.Directory, c.SiteName+".db")
}
