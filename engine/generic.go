package engine

import (
	"net/url"
	"regexp"

	"github.com/dszqbsm/noveldl/cache"
	"github.com/dszqbsm/noveldl/collect"
	"github.com/dszqbsm/noveldl/config"
	"github.com/dszqbsm/noveldl/extract"
	"go.uber.org/zap"
)

// 通用下载器：按站点配置组装HTTPFetcher
func GenericDownloader(cfg *config.SiteConfig, store cache.Store, logger *zap.Logger) (collect.Fetcher, error) {
	return collect.FromConfig(cfg, store, logger.Named("fetcher"))
}

// 通用解析器：编译站点的选择器集合，交给通用抽取引擎
func GenericParser(cfg *config.SiteConfig, logger *zap.Logger) (extract.Extractor, error) {
	set, err := CompileSelectors(cfg)
	if err != nil {
		return nil, err
	}
	opts := []extract.Option{extract.WithLogger(logger.Named("parser"))}
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, &config.ConfigError{Field: "base_url", Reason: err.Error()}
		}
		opts = append(opts, extract.WithBaseURL(base))
	}
	return extract.New(set, opts...), nil
}

type selectorField struct {
	name     string
	expr     string
	required bool
	dst      *extract.Selector
}

/*
输入站点配置，输出编译后的选择器集合

必需的选择器缺失或任意选择器编译失败都返回ConfigError
*/
func CompileSelectors(cfg *config.SiteConfig) (extract.SelectorSet, error) {
	var set extract.SelectorSet
	fields := []selectorField{
		{"novel_title_selector", cfg.NovelTitle, true, &set.NovelTitle},
		{"chapter_list_selector", cfg.ChapterList, true, &set.ChapterList},
		{"chapter_content_selector", cfg.ChapterContent, true, &set.ChapterContent},
		{"chapter_title_selector", cfg.ChapterTitle, false, &set.ChapterTitle},
		{"next_page_selector", cfg.NextPage, false, &set.NextPage},
		{"toc_next_page_selector", cfg.TocNextPage, false, &set.TocNextPage},
	}
	if cfg.PaginationConfig.AjaxURL != "" {
		fields = append(fields,
			selectorField{"pagination_config.pagination_select_selector", cfg.PaginationConfig.SelectSelector, false, &set.PageSelect},
			selectorField{"pagination_config.pagination_option_selector", cfg.PaginationConfig.OptionSelector, false, &set.PageOption},
		)
		set.FragmentKey = cfg.PaginationConfig.ChaptersHTMLKey
	}
	for _, f := range fields {
		if f.expr == "" {
			if f.required {
				return set, &config.ConfigError{Field: f.name, Reason: "required selector is missing"}
			}
			continue
		}
		s, err := extract.CompileSelector(f.expr)
		if err != nil {
			return set, &config.ConfigError{Field: f.name, Reason: err.Error()}
		}
		*f.dst = s
	}
	if cfg.TitlePatterns.RemoveRegex != "" {
		re, err := regexp.Compile(cfg.TitlePatterns.RemoveRegex)
		if err != nil {
			return set, &config.ConfigError{Field: "title_patterns.remove_regex", Reason: err.Error()}
		}
		set.TitleRemove = re
	}
	return set, nil
}
