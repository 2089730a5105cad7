package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/dszqbsm/noveldl/extract"
)

/*
无输入，输出第一个发现的配置错误

检查url是否为http(s)绝对地址，必需的选择器是否存在且可编译，可选的选择器与正则是否可编译，数值是否非负，缓存与输出的后端配置是否自洽
*/
func (c *SiteConfig) Validate() error {
	if err := checkURL("start_url", c.StartURL, true); err != nil {
		return err
	}
	if err := checkURL("base_url", c.BaseURL, false); err != nil {
		return err
	}

	required := []struct {
		field string
		expr  string
	}{
		{"novel_title_selector", c.NovelTitle},
		{"chapter_list_selector", c.ChapterList},
		{"chapter_content_selector", c.ChapterContent},
	}
	for _, r := range required {
		if r.expr == "" {
			return &ConfigError{Field: r.field, Reason: "required selector is missing"}
		}
	}
	selectors := map[string]string{
		"novel_title_selector":     c.NovelTitle,
		"chapter_list_selector":    c.ChapterList,
		"chapter_content_selector": c.ChapterContent,
		"chapter_title_selector":   c.ChapterTitle,
		"next_page_selector":       c.NextPage,
		"toc_next_page_selector":   c.TocNextPage,
	}
	for field, expr := range selectors {
		if expr == "" {
			continue
		}
		if _, err := extract.CompileSelector(expr); err != nil {
			return &ConfigError{Field: field, Reason: err.Error()}
		}
	}

	if c.TitlePatterns.RemoveRegex != "" {
		if _, err := regexp.Compile(c.TitlePatterns.RemoveRegex); err != nil {
			return &ConfigError{Field: "title_patterns.remove_regex", Reason: err.Error()}
		}
	}
	if c.ChapterSplittingEnabled {
		if c.ChapterSplittingRegex == "" {
			return &ConfigError{Field: "chapter_splitting_regex", Reason: "required when chapter_splitting_enabled is true"}
		}
		if _, err := regexp.Compile(c.ChapterSplittingRegex); err != nil {
			return &ConfigError{Field: "chapter_splitting_regex", Reason: err.Error()}
		}
	}

	if c.InContentSplitting.Enabled {
		if c.InContentSplitting.HeaderRegex == "" {
			return &ConfigError{Field: "in_content_splitting.header_regex", Reason: "required when in_content_splitting.enabled is true"}
		}
		if _, err := regexp.Compile(c.InContentSplitting.HeaderRegex); err != nil {
			return &ConfigError{Field: "in_content_splitting.header_regex", Reason: err.Error()}
		}
	}
	if err := c.PaginationConfig.validate(); err != nil {
		return err
	}

	switch {
	case c.DownloadDelay < 0:
		return &ConfigError{Field: "download_delay", Reason: "must not be negative"}
	case c.MaxRetries < 0:
		return &ConfigError{Field: "max_retries", Reason: "must not be negative"}
	case c.RetryDelay < 0:
		return &ConfigError{Field: "retry_delay", Reason: "must not be negative"}
	case c.Timeout < 0:
		return &ConfigError{Field: "timeout", Reason: "must not be negative"}
	case c.MaxPagesPerChapter < 0:
		return &ConfigError{Field: "max_pages_per_chapter", Reason: "must not be negative"}
	}
	for i, l := range c.RateLimits {
		if l.EventCount <= 0 || l.EventDur <= 0 {
			return &ConfigError{Field: fmt.Sprintf("rate_limits[%d]", i), Reason: "event_count and event_dur must be positive"}
		}
	}

	switch c.CacheSettings.Backend {
	case "", "file", "sqlite":
	case "mysql":
		if c.CacheSettings.DSN == "" {
			return &ConfigError{Field: "cache_settings.dsn", Reason: "required for mysql backend"}
		}
	default:
		return &ConfigError{Field: "cache_settings.backend", Reason: fmt.Sprintf("unknown backend %q", c.CacheSettings.Backend)}
	}

	if c.OutputOptions.Format == "" {
		return &ConfigError{Field: "output_options.format", Reason: "must not be empty"}
	}
	if c.OutputOptions.Format == "sql" {
		switch c.OutputOptions.Driver {
		case "sqlite3":
		case "mysql":
			if c.OutputOptions.DSN == "" {
				return &ConfigError{Field: "output_options.dsn", Reason: "required for mysql driver"}
			}
		default:
			return &ConfigError{Field: "output_options.driver", Reason: fmt.Sprintf("unknown driver %q", c.OutputOptions.Driver)}
		}
	}
	return nil
}

// 未配置ajax_url时分页接口关闭，其余字段不检查
func (p PaginationConfig) validate() error {
	if p.AjaxURL == "" {
		return nil
	}
	if err := checkURL("pagination_config.ajax_url", p.AjaxURL, true); err != nil {
		return err
	}
	if m := strings.ToUpper(p.AjaxMethod); m != "" && m != "GET" {
		return &ConfigError{Field: "pagination_config.ajax_method", Reason: fmt.Sprintf("method %q is not supported, only GET", p.AjaxMethod)}
	}
	if p.IDFromURLRegex == "" {
		return &ConfigError{Field: "pagination_config.id_from_url_regex", Reason: "required when ajax_url is set"}
	}
	re, err := regexp.Compile(p.IDFromURLRegex)
	if err != nil {
		return &ConfigError{Field: "pagination_config.id_from_url_regex", Reason: err.Error()}
	}
	if re.NumSubexp() < 1 {
		return &ConfigError{Field: "pagination_config.id_from_url_regex", Reason: "needs a capture group for the novel id"}
	}
	for field, expr := range map[string]string{
		"pagination_config.pagination_select_selector": p.SelectSelector,
		"pagination_config.pagination_option_selector": p.OptionSelector,
	} {
		if expr == "" {
			continue
		}
		if _, err := extract.CompileSelector(expr); err != nil {
			return &ConfigError{Field: field, Reason: err.Error()}
		}
	}
	if p.MaxAjaxPages < 0 {
		return &ConfigError{Field: "pagination_config.max_ajax_pages", Reason: "must not be negative"}
	}
	return nil
}

func checkURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return &ConfigError{Field: field, Reason: "missing"}
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigError{Field: field, Reason: err.Error()}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: field, Reason: fmt.Sprintf("%q is not an absolute http(s) url", raw)}
	}
	return nil
}
