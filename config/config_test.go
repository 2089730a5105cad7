package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonDoc = `{
  "site_name": "demo",
  "start_url": "http://example.com/book/1/",
  "headers": {"Accept-Language": "zh-CN"},
  "download_delay": 0.5,
  "max_retries": 2,
  "novel_title_selector": "h1",
  "chapter_list_selector": "#list a",
  "chapter_content_selector": "#content",
  "title_patterns": {"remove_regex": "^第\\d+章\\s*"},
  "cache_settings": {"expires_in_seconds": 60}
}`

const yamlDoc = `
site_name: demo
start_url: http://example.com/book/1/
headers:
  Accept-Language: zh-CN
download_delay: 0.5
max_retries: 2
novel_title_selector: h1
chapter_list_selector: "#list a"
chapter_content_selector: "#content"
title_patterns:
  remove_regex: '^第\d+章\s*'
cache_settings:
  expires_in_seconds: 60
`

func TestParseJSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := Parse([]byte(jsonDoc), ".json")
	require.NoError(t, err)
	fromYAML, err := Parse([]byte(yamlDoc), ".yaml")
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, "#list a", fromJSON.ChapterList)
	assert.Equal(t, 500*time.Millisecond, fromJSON.Delay())
	assert.Equal(t, time.Minute, fromJSON.CacheTTL())
	// 文档中缺省的字段保留默认值
	assert.True(t, fromJSON.CacheSettings.Enabled)
	assert.True(t, fromJSON.OutputOptions.MergeChapters)
	assert.Equal(t, 2*time.Second, fromJSON.RetryInterval())
	assert.Equal(t, filepath.Join("cache", "demo"), fromJSON.CacheDir())
	assert.NoError(t, fromJSON.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.SiteName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	var cerr *ConfigError
	assert.True(t, errors.As(err, &cerr))
}

func TestCacheTTLNeverExpires(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.Duration(0), cfg.CacheTTL())
	cfg.CacheSettings.Backend = "sqlite"
	assert.Equal(t, filepath.Join("cache", DefaultSiteName, "cache.db"), cfg.CacheDSN())
}

func TestValidate(t *testing.T) {
	valid := func() *SiteConfig {
		cfg, err := Parse([]byte(jsonDoc), ".json")
		require.NoError(t, err)
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(c *SiteConfig)
		field  string
	}{
		{name: "missing start url", mutate: func(c *SiteConfig) { c.StartURL = "" }, field: "start_url"},
		{name: "relative start url", mutate: func(c *SiteConfig) { c.StartURL = "/book/1" }, field: "start_url"},
		{name: "bad base url", mutate: func(c *SiteConfig) { c.BaseURL = "ftp://example.com" }, field: "base_url"},
		{name: "missing title selector", mutate: func(c *SiteConfig) { c.NovelTitle = "" }, field: "novel_title_selector"},
		{name: "missing content selector", mutate: func(c *SiteConfig) { c.ChapterContent = "" }, field: "chapter_content_selector"},
		{name: "broken css", mutate: func(c *SiteConfig) { c.ChapterList = "div[" }, field: "chapter_list_selector"},
		{name: "broken xpath", mutate: func(c *SiteConfig) { c.NextPage = "xpath://a[" }, field: "next_page_selector"},
		{name: "splitting without regex", mutate: func(c *SiteConfig) { c.ChapterSplittingEnabled = true }, field: "chapter_splitting_regex"},
		{name: "broken splitting regex", mutate: func(c *SiteConfig) {
			c.ChapterSplittingEnabled = true
			c.ChapterSplittingRegex = "("
		}, field: "chapter_splitting_regex"},
		{name: "negative delay", mutate: func(c *SiteConfig) { c.DownloadDelay = -1 }, field: "download_delay"},
		{name: "negative retries", mutate: func(c *SiteConfig) { c.MaxRetries = -1 }, field: "max_retries"},
		{name: "bad rate limit", mutate: func(c *SiteConfig) { c.RateLimits = []LimitConfig{{EventCount: 0, EventDur: 1}} }, field: "rate_limits[0]"},
		{name: "mysql cache without dsn", mutate: func(c *SiteConfig) { c.CacheSettings.Backend = "mysql" }, field: "cache_settings.dsn"},
		{name: "unknown cache backend", mutate: func(c *SiteConfig) { c.CacheSettings.Backend = "redis" }, field: "cache_settings.backend"},
		{name: "empty format", mutate: func(c *SiteConfig) { c.OutputOptions.Format = "" }, field: "output_options.format"},
		{name: "mysql output without dsn", mutate: func(c *SiteConfig) {
			c.OutputOptions.Format = "sql"
			c.OutputOptions.Driver = "mysql"
		}, field: "output_options.dsn"},
		{name: "header split without regex", mutate: func(c *SiteConfig) { c.InContentSplitting.Enabled = true }, field: "in_content_splitting.header_regex"},
		{name: "relative ajax url", mutate: func(c *SiteConfig) {
			c.PaginationConfig.AjaxURL = "/ajax"
			c.PaginationConfig.IDFromURLRegex = `/book/(\d+)/`
		}, field: "pagination_config.ajax_url"},
		{name: "ajax post", mutate: func(c *SiteConfig) {
			c.PaginationConfig.AjaxURL = "http://example.com/ajax"
			c.PaginationConfig.AjaxMethod = "POST"
			c.PaginationConfig.IDFromURLRegex = `/book/(\d+)/`
		}, field: "pagination_config.ajax_method"},
		{name: "ajax id regex without group", mutate: func(c *SiteConfig) {
			c.PaginationConfig.AjaxURL = "http://example.com/ajax"
			c.PaginationConfig.IDFromURLRegex = `/book/\d+/`
		}, field: "pagination_config.id_from_url_regex"},
		{name: "ajax broken select", mutate: func(c *SiteConfig) {
			c.PaginationConfig.AjaxURL = "http://example.com/ajax"
			c.PaginationConfig.IDFromURLRegex = `/book/(\d+)/`
			c.PaginationConfig.SelectSelector = "select["
		}, field: "pagination_config.pagination_select_selector"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestParsePaginationAndHeaderSplit(t *testing.T) {
	doc := `{
  "start_url": "http://example.com/book/12/",
  "novel_title_selector": "h1",
  "chapter_list_selector": "#list a",
  "chapter_content_selector": "#content",
  "in_content_splitting": {"enabled": true, "header_regex": "^第\\d+章.*$"},
  "pagination_config": {"ajax_url": "http://example.com/ajax", "id_from_url_regex": "/book/(\\d+)/", "json_response_chapters_html_key": "html"},
  "proxy_pool": ["http://127.0.0.1:8888", "http://127.0.0.1:8889"]
}`
	cfg, err := Parse([]byte(doc), ".json")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.InContentSplitting.Enabled)
	assert.Equal(t, `^第\d+章.*$`, cfg.InContentSplitting.HeaderRegex)
	assert.Equal(t, "http://example.com/ajax", cfg.PaginationConfig.AjaxURL)
	assert.Equal(t, "html", cfg.PaginationConfig.ChaptersHTMLKey)
	// 未给出的分页字段保持默认值
	assert.Equal(t, "GET", cfg.PaginationConfig.AjaxMethod)
	assert.Equal(t, "select.select", cfg.PaginationConfig.SelectSelector)
	assert.Equal(t, DefaultAjaxPages, cfg.PaginationConfig.MaxAjaxPages)
	assert.Len(t, cfg.ProxyPool, 2)
}
